package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrTimeout      = errors.New("progress stream timed out")
	ErrStreamClosed = errors.New("progress stream ended without a result")
	ErrChannelUsed  = errors.New("progress channel already used")
)

type State int

const (
	StateIdle State = iota
	StateOpen
	StateComplete
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateComplete:
		return "complete"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// StreamError - событие error из потока: текст для пользователя.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

// Channel - один канал прогресса одной операции: Idle -> Open -> Complete | Errored.
// Срок ожидания задает ctx, переданный в Run.
type Channel struct {
	id      string
	display *Display
	logger  zerolog.Logger

	mu    sync.Mutex
	state State
}

func NewChannel(id string, display *Display, logger zerolog.Logger) *Channel {
	return &Channel{
		id:      id,
		display: display,
		logger:  logger.With().Str("operation_id", id).Logger(),
		state:   StateIdle,
	}
}

func (c *Channel) ID() string {
	return c.id
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

type decoded struct {
	msg Message
	err error
}

// Run читает поток до терминального события и всегда закрывает его.
// Возвращает полезную нагрузку complete или ошибку: *StreamError, ErrTimeout,
// ErrStreamClosed, ошибку контекста.
func (c *Channel) Run(ctx context.Context, stream io.ReadCloser) ([]byte, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		stream.Close()
		return nil, ErrChannelUsed
	}
	c.state = StateOpen
	c.mu.Unlock()

	defer stream.Close()

	done := make(chan struct{})
	defer close(done)

	messages := make(chan decoded)
	go func() {
		dec := NewDecoder(stream)
		for {
			msg, err := dec.Next()
			select {
			case messages <- decoded{msg: msg, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.setState(StateErrored)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.logger.Warn().Msg("Progress stream timed out")
				return nil, ErrTimeout
			}
			return nil, ctx.Err()

		case d := <-messages:
			if d.err != nil {
				c.setState(StateErrored)
				if errors.Is(d.err, io.EOF) {
					return nil, ErrStreamClosed
				}
				if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return nil, ErrTimeout
				}
				return nil, fmt.Errorf("failed to read progress stream: %w", d.err)
			}

			switch d.msg.Kind {
			case KindPercent:
				c.display.SetPercent(c.id, d.msg.Percent)
				c.logger.Debug().Int("percent", d.msg.Percent).Msg("Progress")
			case KindStatus:
				c.display.SetStatus(c.id, d.msg.Text)
				c.logger.Debug().Str("status", d.msg.Text).Msg("Progress status")
			case KindComplete:
				c.setState(StateComplete)
				return []byte(d.msg.Text), nil
			case KindError:
				c.setState(StateErrored)
				return nil, &StreamError{Message: d.msg.Text}
			}
		}
	}
}
