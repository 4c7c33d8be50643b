package models

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type AnalysisResult struct {
	SessionID          string                                    `json:"session_id,omitempty"`
	Timestamp          string                                    `json:"timestamp"`
	SimilarityAnalysis *SimilarityAnalysis                       `json:"similarity_analysis,omitempty"`
	AIDetection        *orderedmap.OrderedMap[string, AIDetection] `json:"ai_detection,omitempty"`
}

type SimilarityAnalysis struct {
	FileNames        []string      `json:"file_names"`
	SimilarityMatrix [][]float64   `json:"similarity_matrix"`
	Threshold        float64       `json:"threshold"`
	SimilarPairs     []SimilarPair `json:"similar_pairs"`
}

type SimilarPair struct {
	File1           string  `json:"file1"`
	File2           string  `json:"file2"`
	SimilarityScore float64 `json:"similarity_score"`
}

type AIDetection struct {
	IsAIGenerated bool    `json:"is_ai_generated"`
	AIProbability float64 `json:"ai_probability"`
}

type ComparisonResult struct {
	File1           string  `json:"file1"`
	File2           string  `json:"file2"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Validate проверяет, что матрица квадратная и совпадает с file_names.
func (a *SimilarityAnalysis) Validate() error {
	if a == nil || a.SimilarityMatrix == nil {
		return nil
	}
	if len(a.SimilarityMatrix) != len(a.FileNames) {
		return fmt.Errorf("similarity matrix has %d rows for %d files", len(a.SimilarityMatrix), len(a.FileNames))
	}
	for i, row := range a.SimilarityMatrix {
		if len(row) != len(a.FileNames) {
			return fmt.Errorf("similarity matrix row %d has %d columns, want %d", i, len(row), len(a.FileNames))
		}
	}
	return nil
}

// DecodeAnalysisResult разбирает полезную нагрузку события complete анализа.
func DecodeAnalysisResult(payload []byte) (*AnalysisResult, error) {
	var envelope struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode analysis payload: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		return nil, fmt.Errorf("analysis payload reported success=false")
	}

	var result AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis payload: %w", err)
	}
	if err := result.SimilarityAnalysis.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}
