package workflow

import (
	"context"
	"errors"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/integration"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/progress"
)

// Тексты для пользователя
const (
	MsgTooManyFiles     = "Maximum %d files allowed."
	MsgFileTooLarge     = "File %s exceeds %s limit."
	MsgUploading        = "Uploading files..."
	MsgUploadComplete   = "Upload complete!"
	MsgUploaded         = "Uploaded %d files."
	MsgAnalyzing        = "Analyzing documents..."
	MsgAnalysisComplete = "Analysis complete!"
	MsgAnalysisDone     = "Analysis completed."
	MsgUploadFirst      = "Please upload files first."
	MsgBadThreshold     = "Similarity threshold must be between 0 and 100."
	MsgBusy             = "Another operation is still running."
	MsgNotInList        = "Please select files from the uploaded list."
	MsgSameFiles        = "Please select different files."
	MsgCompareFailed    = "Comparison failed."
	MsgConverseInput    = "Please upload files and enter text first."
	MsgConversePending  = "Processing..."
	MsgNoResponse       = "No meaningful response."
	MsgConverseError    = "Error in conversation."
	MsgConverseFailed   = "Conversation failed."
	MsgConverseDone     = "Conversation completed."
	MsgNoSession        = "No active session."
	MsgCleanedUp        = "Session data cleaned up successfully."
	MsgCleanupFailed    = "Cleanup failed"
	MsgFilesRemoved     = "All files removed."
	MsgReportSaved      = "Report saved to %s."
	MsgMalformed        = "Received a malformed response from the server."
	MsgTimeout          = "The operation timed out."
	MsgStreamLost       = "Connection to the server was lost before the operation finished."
	MsgCancelled        = "The operation was cancelled."
	MsgOperationFailed  = "Operation failed."
)

type Kind int

const (
	// KindValidation - отказ до запроса: предупреждение, состояние не меняется.
	KindValidation Kind = iota
	// KindServer - событие error, неуспешный ответ, сбой сети, таймаут или битый ответ.
	KindServer
)

func (k Kind) String() string {
	if k == KindValidation {
		return "validation"
	}
	return "server"
}

// Error - ошибка операции: Message показан пользователю, Err хранит причину.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind проверяет, что err - *Error указанного вида.
func IsKind(err error, kind Kind) bool {
	var we *Error
	return errors.As(err, &we) && we.Kind == kind
}

// userMessage приводит причину сбоя к тексту уведомления.
func userMessage(err error) string {
	var streamErr *progress.StreamError
	var statusErr *integration.StatusError

	switch {
	case errors.As(err, &streamErr):
		if streamErr.Message == "" {
			return MsgOperationFailed
		}
		return streamErr.Message
	case errors.Is(err, progress.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case errors.Is(err, progress.ErrStreamClosed):
		return MsgStreamLost
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	case errors.Is(err, integration.ErrMalformedResponse):
		return MsgMalformed
	case errors.As(err, &statusErr) && statusErr.Message != "":
		return statusErr.Message
	default:
		return "Error: " + err.Error()
	}
}
