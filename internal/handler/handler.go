package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/middleware"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/progress"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/render"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/report"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Workbench - операции рабочего процесса, которые вызывает HTTP-слой.
type Workbench interface {
	State() workflow.State
	View() *render.View
	Progress() models.ProgressSnapshot
	MaxFiles() int
	Upload(ctx context.Context, files []models.SelectedFile) error
	Analyze(ctx context.Context, control int) error
	Compare(ctx context.Context, file1, file2 string) error
	Converse(ctx context.Context, text string) error
	ClearFiles()
	Cleanup(ctx context.Context) error
	ReportURL() (string, error)
	SaveReport(ctx context.Context, sink report.Sink) (string, error)
	DismissNotification()
}

type Config struct {
	MaxUploadSize  int64
	RequestTimeout time.Duration
}

type Handler struct {
	router    *chi.Mux
	workbench Workbench
	pages     *render.PageRenderer
	reports   report.Sink
	cfg       Config
	logger    zerolog.Logger

	// конвейеры, запущенные формой, живут дольше запроса
	background sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewHandler(wb Workbench, pages *render.PageRenderer, reports report.Sink, cfg Config, logger zerolog.Logger) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		router:    chi.NewRouter(),
		workbench: wb,
		pages:     pages,
		reports:   reports,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	h.setupRoutes()
	return h
}

func (h *Handler) setupRoutes() {
	// Health check
	h.router.Get("/health", h.HealthCheck)
	h.router.Get("/live", h.LiveCheck)

	h.router.Get("/", h.Page)

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/view", h.GetView)
		r.Get("/progress", h.GetProgress)
		r.Delete("/notification", h.DismissNotification)

		// длительные операции ограничены своими сроками
		r.Post("/upload", h.Upload)
		r.Post("/analyze", h.Analyze)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(h.cfg.RequestTimeout))

			r.Post("/compare", h.Compare)
			r.Post("/converse", h.Converse)
			r.Post("/clear", h.ClearFiles)
			r.Post("/cleanup", h.Cleanup)
			r.Get("/download", h.Download)
			r.Post("/report", h.SaveReport)
		})
	})
}

func (h *Handler) GetRouter() *chi.Mux {
	return h.router
}

// Close отменяет фоновые конвейеры и ждет их завершения.
func (h *Handler) Close(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runPipeline: JSON-клиент ждет результат, форма сразу получает редирект на страницу,
// а прогресс видит через обновление страницы.
func (h *Handler) runPipeline(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) error) {
	if wantsJSON(r) {
		h.finish(w, r, fn(r.Context()))
		return
	}

	h.background.Add(1)
	go func() {
		defer h.background.Done()
		if err := fn(h.ctx); err != nil {
			h.logger.Debug().Err(err).Msg("Background operation finished with error")
		}
	}()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, err error) {
	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.workbench.State())
}

func (h *Handler) writeWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	var we *workflow.Error
	if errors.As(err, &we) {
		message = we.Message
	}

	if status >= http.StatusInternalServerError {
		h.requestLogger(r).Error().Err(err).Msg("Workbench operation failed")
	}
	WriteError(w, status, message, code)
}

// requestLogger - логгер из RequestLogger, без него логгер обработчика.
func (h *Handler) requestLogger(r *http.Request) *zerolog.Logger {
	if log := zerolog.Ctx(r.Context()); log.GetLevel() != zerolog.Disabled {
		return log
	}
	return &h.logger
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, progress.ErrBusy):
		return http.StatusConflict, "OPERATION_BUSY"
	case workflow.IsKind(err, workflow.KindValidation):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case workflow.IsKind(err, workflow.KindServer):
		return http.StatusBadGateway, "BACKEND_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
