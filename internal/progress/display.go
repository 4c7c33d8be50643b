package progress

import (
	"sync"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
)

// Observer получает каждое изменение индикатора (например, полоса прогресса в терминале).
type Observer interface {
	OnProgress(s models.ProgressSnapshot)
}

// Display - общий индикатор прогресса. Писать в него может только владелец,
// то есть текущий открытый канал.
type Display struct {
	mu        sync.RWMutex
	snap      models.ProgressSnapshot
	observers []Observer
}

func NewDisplay(observers ...Observer) *Display {
	return &Display{observers: observers}
}

// Begin передает индикатор операции opID и показывает его с нуля.
func (d *Display) Begin(opID, status string) {
	d.update(func(s *models.ProgressSnapshot) bool {
		*s = models.ProgressSnapshot{
			OperationID: opID,
			Visible:     true,
			Percent:     0,
			Status:      status,
		}
		return true
	})
}

func (d *Display) SetPercent(opID string, percent int) {
	d.update(func(s *models.ProgressSnapshot) bool {
		if s.OperationID != opID {
			return false
		}
		s.Percent = percent
		return true
	})
}

func (d *Display) SetStatus(opID, status string) {
	d.update(func(s *models.ProgressSnapshot) bool {
		if s.OperationID != opID {
			return false
		}
		s.Status = status
		return true
	})
}

// End скрывает индикатор. Пустой status оставляет последний текст.
func (d *Display) End(opID, status string) {
	d.update(func(s *models.ProgressSnapshot) bool {
		if s.OperationID != opID {
			return false
		}
		s.Visible = false
		s.OperationID = ""
		if status != "" {
			s.Status = status
		}
		return true
	})
}

func (d *Display) Snapshot() models.ProgressSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.snap
}

func (d *Display) update(fn func(s *models.ProgressSnapshot) bool) {
	d.mu.Lock()
	changed := fn(&d.snap)
	snap := d.snap
	d.mu.Unlock()

	if !changed {
		return
	}
	for _, o := range d.observers {
		o.OnProgress(snap)
	}
}
