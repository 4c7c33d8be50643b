package notify

import (
	"sync"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/rs/zerolog"
)

// Sink принимает уведомления для пользователя.
type Sink interface {
	Notify(n models.Notification)
}

// Board показывает одно текущее уведомление: каждое новое заменяет предыдущее.
// Копии рассылаются в дополнительные приемники (консоль, очередь).
type Board struct {
	mu      sync.RWMutex
	current *models.Notification
	forward []Sink
	logger  zerolog.Logger
}

func NewBoard(logger zerolog.Logger, forward ...Sink) *Board {
	return &Board{
		forward: forward,
		logger:  logger,
	}
}

func (b *Board) Notify(n models.Notification) {
	b.mu.Lock()
	b.current = &n
	b.mu.Unlock()

	event := b.logger.Info()
	switch n.Level {
	case models.LevelWarning:
		event = b.logger.Warn()
	case models.LevelDanger:
		event = b.logger.Error()
	}
	event.Str("level", n.Level.String()).Msg(n.Message)

	for _, sink := range b.forward {
		sink.Notify(n)
	}
}

func (b *Board) Success(message string) {
	b.Notify(models.Notification{Level: models.LevelSuccess, Message: message})
}

func (b *Board) Warning(message string) {
	b.Notify(models.Notification{Level: models.LevelWarning, Message: message})
}

func (b *Board) Danger(message string) {
	b.Notify(models.Notification{Level: models.LevelDanger, Message: message})
}

// Current возвращает последнее показанное уведомление.
func (b *Board) Current() (models.Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.current == nil {
		return models.Notification{}, false
	}
	return *b.current, true
}

// Dismiss убирает текущее уведомление.
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = nil
}
