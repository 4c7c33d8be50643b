package cli

import (
	"io"
	"sync"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/schollz/progressbar/v3"
)

// TerminalProgress рисует индикатор прогресса в терминале.
// Новая операция начинает новую полосу, скрытие индикатора стирает ее.
type TerminalProgress struct {
	out io.Writer

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	opID string
}

func NewTerminalProgress(out io.Writer) *TerminalProgress {
	return &TerminalProgress{out: out}
}

func (t *TerminalProgress) OnProgress(s models.ProgressSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !s.Visible {
		if t.bar != nil {
			t.bar.Clear()
			t.bar = nil
			t.opID = ""
		}
		return
	}

	if t.bar == nil || t.opID != s.OperationID {
		if t.bar != nil {
			t.bar.Clear()
		}
		t.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetDescription(s.Status),
		)
		t.opID = s.OperationID
	}

	t.bar.Describe(s.Status)
	t.bar.Set(s.Percent)
}
