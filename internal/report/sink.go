package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const ReportName = "analysis_report.json"

var ErrInvalidSession = errors.New("invalid session id for report path")

// Sink сохраняет скачанный отчет как есть, без разбора содержимого.
type Sink interface {
	Store(ctx context.Context, sessionID string, r io.Reader, size int64) (string, error)
}

type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Store(ctx context.Context, sessionID string, r io.Reader, _ int64) (string, error) {
	if sessionID == "" || sessionID != filepath.Base(sessionID) || sessionID == "." || sessionID == ".." {
		return "", ErrInvalidSession
	}

	dir := filepath.Join(s.dir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// пишем во временный файл: оборванная запись не должна заменить прежний отчет
	f, err := os.CreateTemp(dir, ReportName+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	_, err = io.Copy(f, contextReader{ctx: ctx, r: r})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	path := filepath.Join(dir, ReportName)
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

// contextReader прерывает копирование при отмене контекста.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
