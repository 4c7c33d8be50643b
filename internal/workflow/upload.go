package workflow

import (
	"context"
	"fmt"
	"io"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/dustin/go-humanize"
)

// Upload проверяет выбор и отправляет его одним multipart-пакетом.
// Пустой выбор ничего не делает. Список файлов сессии берется из ответа сервера.
func (o *Orchestrator) Upload(ctx context.Context, files []models.SelectedFile) error {
	if len(files) == 0 {
		return nil
	}

	if len(files) > o.opts.MaxFiles {
		return o.reject(fmt.Sprintf(MsgTooManyFiles, o.opts.MaxFiles), nil)
	}

	for _, f := range files {
		if f.Size > o.opts.MaxFileSize {
			return o.reject(fmt.Sprintf(MsgFileTooLarge, f.Name, humanize.IBytes(uint64(o.opts.MaxFileSize))), nil)
		}
	}

	return o.run(ctx, pipeline{
		name:    "upload",
		status:  MsgUploading,
		timeout: o.opts.UploadTimeout,
		open: func(ctx context.Context, opID string) (io.ReadCloser, error) {
			return o.backend.Upload(ctx, opID, files)
		},
		complete: func(payload []byte) (string, error) {
			done, err := models.DecodeUploadComplete(payload)
			if err != nil {
				return "", err
			}
			if err := o.session.Set(done.SessionID, done.Files); err != nil {
				return "", err
			}

			o.logger.Info().
				Str("session_id", done.SessionID).
				Int("files", len(done.Files)).
				Msg("Files uploaded")

			o.board.Success(fmt.Sprintf(MsgUploaded, len(done.Files)))
			return MsgUploadComplete, nil
		},
	})
}

// ClearFiles убирает все файлы из списка, идентификатор сессии остается.
func (o *Orchestrator) ClearFiles() {
	o.session.ClearFiles()
	o.board.Success(MsgFilesRemoved)
}
