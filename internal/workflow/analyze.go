package workflow

import (
	"context"
	"io"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
)

// Analyze запускает анализ текущей сессии. control - положение ползунка 0..100.
// При ошибке ранее показанные результаты не трогаются.
func (o *Orchestrator) Analyze(ctx context.Context, control int) error {
	s := o.session.Get()
	if !s.Active() || len(s.Files) == 0 {
		return o.reject(MsgUploadFirst, nil)
	}
	if control < 0 || control > 100 {
		return o.reject(MsgBadThreshold, nil)
	}

	req := models.AnalyzeRequest{
		SessionID: s.ID,
		Threshold: float64(control) / 100,
	}

	return o.run(ctx, pipeline{
		name:    "analyze",
		status:  MsgAnalyzing,
		timeout: o.opts.AnalyzeTimeout,
		open: func(ctx context.Context, opID string) (io.ReadCloser, error) {
			return o.backend.Analyze(ctx, opID, req)
		},
		complete: func(payload []byte) (string, error) {
			result, err := models.DecodeAnalysisResult(payload)
			if err != nil {
				return "", err
			}

			// результат чужой сессии не показываем
			if current := o.session.Get().ID; current != req.SessionID {
				o.logger.Warn().
					Str("session_id", req.SessionID).
					Str("current_session_id", current).
					Msg("Analysis result dropped: session changed")
				return "", nil
			}

			o.mu.Lock()
			o.result = result
			o.comparison = nil
			o.mu.Unlock()

			o.logger.Info().
				Str("session_id", req.SessionID).
				Float64("threshold", req.Threshold).
				Msg("Analysis rendered")

			o.board.Success(MsgAnalysisDone)
			return MsgAnalysisComplete, nil
		},
	})
}
