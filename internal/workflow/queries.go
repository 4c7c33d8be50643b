package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/integration"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/report"
)

// Compare сравнивает два файла из текущего списка. Одинаковые имена
// отклоняются без запроса.
func (o *Orchestrator) Compare(ctx context.Context, file1, file2 string) error {
	s := o.session.Get()
	if !s.Active() {
		return o.reject(MsgUploadFirst, nil)
	}
	if file1 == file2 {
		return o.reject(MsgSameFiles, nil)
	}
	if !slices.Contains(s.Files, file1) || !slices.Contains(s.Files, file2) {
		return o.reject(MsgNotInList, nil)
	}

	opID := o.newOpID()
	logger := o.logger.With().Str("operation_id", opID).Str("operation", "compare").Logger()

	ctx, cancel := o.requestContext(ctx)
	defer cancel()

	resp, err := o.backend.Compare(ctx, opID, models.CompareRequest{
		SessionID: s.ID,
		File1:     file1,
		File2:     file2,
	})
	if err != nil {
		return o.fail(logger, userMessage(err), err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = MsgCompareFailed
		}
		return o.fail(logger, msg, errors.New(msg))
	}

	o.mu.Lock()
	o.comparison = &models.ComparisonResult{
		File1:           resp.File1,
		File2:           resp.File2,
		SimilarityScore: resp.SimilarityScore,
	}
	o.mu.Unlock()

	logger.Info().
		Str("file1", resp.File1).
		Str("file2", resp.File2).
		Float64("similarity_score", resp.SimilarityScore).
		Msg("Files compared")
	return nil
}

// Converse отправляет вопрос по загруженным документам. Ответ показывается как есть.
func (o *Orchestrator) Converse(ctx context.Context, text string) error {
	s := o.session.Get()
	if !s.Active() || strings.TrimSpace(text) == "" {
		return o.reject(MsgConverseInput, nil)
	}

	opID := o.newOpID()
	logger := o.logger.With().Str("operation_id", opID).Str("operation", "converse").Logger()

	o.setConversation(MsgConversePending)

	ctx, cancel := o.requestContext(ctx)
	defer cancel()

	resp, err := o.backend.Converse(ctx, opID, models.ConverseRequest{
		SessionID: s.ID,
		Text:      text,
	})
	if err != nil {
		o.setConversation(MsgConverseError)

		var statusErr *integration.StatusError
		switch {
		case errors.Is(err, integration.ErrMalformedResponse):
			return o.fail(logger, MsgMalformed, err)
		case errors.As(err, &statusErr):
			return o.fail(logger, MsgConverseFailed, err)
		default:
			return o.fail(logger, "Network error: "+err.Error(), err)
		}
	}

	if !resp.Success {
		o.setConversation(MsgConverseError)
		msg := resp.Error
		if msg == "" {
			msg = MsgConverseFailed
		}
		return o.fail(logger, msg, errors.New(msg))
	}

	answer := resp.Response
	if answer == "" {
		answer = MsgNoResponse
	}
	o.setConversation(answer)
	o.board.Success(MsgConverseDone)
	return nil
}

func (o *Orchestrator) setConversation(text string) {
	o.mu.Lock()
	o.conversation = text
	o.mu.Unlock()
}

// ReportURL - адрес отчета текущей сессии. Переход по нему ничего не разбирает.
func (o *Orchestrator) ReportURL() (string, error) {
	s := o.session.Get()
	if !s.Active() {
		return "", o.reject(MsgNoSession, nil)
	}
	return o.backend.ReportURL(s.ID), nil
}

// SaveReport скачивает отчет и передает его в sink без разбора.
func (o *Orchestrator) SaveReport(ctx context.Context, sink report.Sink) (string, error) {
	s := o.session.Get()
	if !s.Active() {
		return "", o.reject(MsgNoSession, nil)
	}

	opID := o.newOpID()
	logger := o.logger.With().Str("operation_id", opID).Str("operation", "download").Logger()

	ctx, cancel := o.requestContext(ctx)
	defer cancel()

	body, size, err := o.backend.DownloadReport(ctx, opID, s.ID)
	if err != nil {
		return "", o.fail(logger, userMessage(err), err)
	}
	defer body.Close()

	location, err := sink.Store(ctx, s.ID, body, size)
	if err != nil {
		return "", o.fail(logger, userMessage(err), err)
	}

	logger.Info().Str("session_id", s.ID).Str("location", location).Msg("Report saved")
	o.board.Success(fmt.Sprintf(MsgReportSaved, location))
	return location, nil
}

// Cleanup удаляет данные сессии на сервере. При неудаче сессия остается.
// Cleanup занимает gate: пока идет загрузка или анализ, сессию удалить нельзя.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	s := o.session.Get()
	if !s.Active() {
		return o.reject(MsgNoSession, nil)
	}

	opID := o.newOpID()
	release, err := o.gate.Acquire(opID)
	if err != nil {
		return o.reject(MsgBusy, err)
	}
	defer release()

	logger := o.logger.With().Str("operation_id", opID).Str("operation", "cleanup").Logger()

	ctx, cancel := o.requestContext(ctx)
	defer cancel()

	resp, err := o.backend.Cleanup(ctx, opID, models.CleanupRequest{SessionID: s.ID})
	if err != nil {
		return o.fail(logger, userMessage(err), err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = MsgCleanupFailed
		}
		return o.fail(logger, msg, errors.New(msg))
	}

	o.session.Clear()
	o.mu.Lock()
	o.result = nil
	o.comparison = nil
	o.conversation = ""
	o.mu.Unlock()

	logger.Info().Str("session_id", s.ID).Msg("Session cleaned up")
	o.board.Success(MsgCleanedUp)
	return nil
}
