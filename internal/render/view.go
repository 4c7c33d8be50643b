package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
)

const (
	Title            = "Analysis Results"
	SimilarityTitle  = "Document Similarity Analysis"
	AIDetectionTitle = "AI Content Detection"
	NoMatchesText    = "No similar document pairs found."
	NoAIResultsText  = "No AI detection results available."
	HumanLabel       = "Human-Written"
	AILabel          = "AI-Generated"
)

// View - модель представления результатов анализа, не зависящая от DOM.
type View struct {
	Title       string              `json:"title"`
	Timestamp   string              `json:"timestamp"`
	Heatmap     *Heatmap            `json:"heatmap,omitempty"`
	Similarity  *SimilaritySection  `json:"similarity,omitempty"`
	AIDetection *AIDetectionSection `json:"ai_detection,omitempty"`
	Actions     Actions             `json:"actions"`
}

type Heatmap struct {
	Labels []string `json:"labels"`
	Rows   []Row    `json:"rows"`
}

type Row struct {
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

type Cell struct {
	Score float64 `json:"score"`
	Hue   float64 `json:"hue"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

type SimilaritySection struct {
	Title     string     `json:"title"`
	Threshold string     `json:"threshold"`
	Pairs     []PairItem `json:"pairs"`
	// Empty заполняется, когда пар выше порога нет
	Empty  string     `json:"empty,omitempty"`
	Picker PairPicker `json:"picker"`
}

type PairItem struct {
	File1 string  `json:"file1"`
	File2 string  `json:"file2"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// PairPicker - ручное сравнение пары: варианты ровно те файлы, что в сессии.
type PairPicker struct {
	Options []string `json:"options"`
}

type AIDetectionSection struct {
	Title string   `json:"title"`
	Items []AIItem `json:"items"`
	Empty string   `json:"empty,omitempty"`
}

type AIItem struct {
	File        string  `json:"file"`
	AIGenerated bool    `json:"ai_generated"`
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
}

type Actions struct {
	SessionID string `json:"session_id"`
	Download  bool   `json:"download"`
	Cleanup   bool   `json:"cleanup"`
}

// Render - чистая функция: одинаковый вход дает одинаковый View.
func Render(result models.AnalysisResult, files []string, sessionID string) View {
	v := View{
		Title:     Title,
		Timestamp: "Analysis completed on: " + result.Timestamp,
		Actions: Actions{
			SessionID: sessionID,
			Download:  sessionID != "",
			Cleanup:   sessionID != "",
		},
	}

	if sa := result.SimilarityAnalysis; sa != nil {
		if sa.SimilarityMatrix != nil {
			v.Heatmap = heatmap(sa)
		}
		if sa.SimilarPairs != nil {
			v.Similarity = similarity(sa, files)
		}
	}

	if result.AIDetection != nil {
		section := &AIDetectionSection{Title: AIDetectionTitle, Items: []AIItem{}}
		for pair := result.AIDetection.Oldest(); pair != nil; pair = pair.Next() {
			section.Items = append(section.Items, aiItem(pair.Key, pair.Value))
		}
		if len(section.Items) == 0 {
			section.Empty = NoAIResultsText
		}
		v.AIDetection = section
	}

	return v
}

// Hue: 240 (синий) при нулевой схожести, 0 (красный) при полной.
func Hue(score float64) float64 {
	return (1 - score) * 240
}

func Percent(score float64) string {
	return strconv.FormatFloat(score*100, 'f', 1, 64) + "%"
}

func PairLabel(file1, file2 string, score float64) string {
	return fmt.Sprintf("%s ↔ %s: %s", file1, file2, Percent(score))
}

func heatmap(sa *models.SimilarityAnalysis) *Heatmap {
	h := &Heatmap{
		Labels: append([]string{}, sa.FileNames...),
		Rows:   make([]Row, 0, len(sa.FileNames)),
	}

	for i, name := range sa.FileNames {
		row := Row{Label: name, Cells: make([]Cell, 0, len(sa.FileNames))}
		for j := range sa.FileNames {
			row.Cells = append(row.Cells, cell(scoreAt(sa.SimilarityMatrix, i, j)))
		}
		h.Rows = append(h.Rows, row)
	}
	return h
}

func scoreAt(matrix [][]float64, i, j int) float64 {
	if i < len(matrix) && j < len(matrix[i]) {
		return matrix[i][j]
	}
	return 0
}

func cell(score float64) Cell {
	hue := Hue(score)
	return Cell{
		Score: score,
		Hue:   hue,
		Color: fmt.Sprintf("hsl(%s, 70%%, 50%%)", strconv.FormatFloat(math.Round(hue*100)/100, 'f', -1, 64)),
		Label: Percent(score),
	}
}

func similarity(sa *models.SimilarityAnalysis, files []string) *SimilaritySection {
	s := &SimilaritySection{
		Title:     SimilarityTitle,
		Threshold: "Similarity threshold: " + strconv.FormatFloat(math.Round(sa.Threshold*1000)/10, 'f', -1, 64) + "%",
		Pairs:     make([]PairItem, 0, len(sa.SimilarPairs)),
		Picker:    PairPicker{Options: append([]string{}, files...)},
	}

	for _, p := range sa.SimilarPairs {
		s.Pairs = append(s.Pairs, PairItem{
			File1: p.File1,
			File2: p.File2,
			Score: p.SimilarityScore,
			Label: PairLabel(p.File1, p.File2, p.SimilarityScore),
		})
	}
	if len(s.Pairs) == 0 {
		s.Empty = NoMatchesText
	}
	return s
}

func aiItem(file string, d models.AIDetection) AIItem {
	label := HumanLabel
	if d.IsAIGenerated {
		label = AILabel
	}
	return AIItem{
		File:        file,
		AIGenerated: d.IsAIGenerated,
		Probability: d.AIProbability,
		Label:       fmt.Sprintf("%s (%s%%)", label, strconv.FormatFloat(d.AIProbability, 'f', 1, 64)),
	}
}
