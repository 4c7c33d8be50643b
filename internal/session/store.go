package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
)

var (
	ErrNoSession     = errors.New("files cannot be set without a session id")
	ErrDuplicateFile = errors.New("duplicate file name")
)

// Store - единственный источник правды о текущей сессии и списке файлов.
type Store struct {
	mu      sync.RWMutex
	current models.Session
}

func NewStore() *Store {
	return &Store{current: models.Session{Files: []string{}}}
}

func (s *Store) Get() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Session{
		ID:    s.current.ID,
		Files: slices.Clone(s.current.Files),
	}
}

// Set заменяет сессию целиком. Порядок файлов сохраняется как есть.
func (s *Store) Set(id string, files []string) error {
	if id == "" && len(files) > 0 {
		return ErrNoSession
	}

	seen := make(map[string]struct{}, len(files))
	for _, name := range files {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateFile, name)
		}
		seen[name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.Session{ID: id, Files: append([]string{}, files...)}
	return nil
}

// ClearFiles очищает список файлов, идентификатор сессии остается.
func (s *Store) ClearFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Files = []string{}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.Session{Files: []string{}}
}
