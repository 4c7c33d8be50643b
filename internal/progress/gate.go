package progress

import (
	"errors"
	"sync"
)

var ErrBusy = errors.New("another operation is still running")

// Gate допускает не более одного открытого канала прогресса.
type Gate struct {
	mu     sync.Mutex
	active string
}

// Acquire занимает gate для opID. Пока он занят, новые операции получают ErrBusy.
func (g *Gate) Acquire(opID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != "" {
		return nil, ErrBusy
	}
	g.active = opID

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.active == opID {
				g.active = ""
			}
		})
	}, nil
}

func (g *Gate) Active() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.active, g.active != ""
}
