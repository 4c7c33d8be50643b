package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/integration"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/notify"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/progress"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/render"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Options struct {
	MaxFiles       int
	MaxFileSize    int64
	UploadTimeout  time.Duration
	AnalyzeTimeout time.Duration
	RequestTimeout time.Duration
}

// State - все, что видит пользователь, одним снимком.
type State struct {
	Session      models.Session          `json:"session"`
	Controls     models.Controls         `json:"controls"`
	Progress     models.ProgressSnapshot `json:"progress"`
	Notification *models.Notification    `json:"notification,omitempty"`
	View         *render.View            `json:"view,omitempty"`
	Comparison   string                  `json:"comparison,omitempty"`
	Conversation string                  `json:"conversation,omitempty"`
}

// Orchestrator ведет рабочий процесс одной сессии: загрузка, анализ,
// разовые запросы и очистка. Длительные операции идут строго по одной.
type Orchestrator struct {
	backend integration.BackendClient
	session *session.Store
	board   *notify.Board
	display *progress.Display
	gate    progress.Gate
	opts    Options
	logger  zerolog.Logger
	newOpID func() string

	mu           sync.RWMutex
	result       *models.AnalysisResult
	comparison   *models.ComparisonResult
	conversation string
}

func NewOrchestrator(
	backend integration.BackendClient,
	store *session.Store,
	board *notify.Board,
	display *progress.Display,
	opts Options,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		session: store,
		board:   board,
		display: display,
		opts:    opts,
		logger:  logger,
		newOpID: uuid.NewString,
	}
}

func (o *Orchestrator) Session() models.Session {
	return o.session.Get()
}

func (o *Orchestrator) Progress() models.ProgressSnapshot {
	return o.display.Snapshot()
}

func (o *Orchestrator) MaxFiles() int {
	return o.opts.MaxFiles
}

// View рендерит последний результат анализа с текущим списком файлов,
// поэтому выбор пары всегда совпадает с сессией. nil, если анализа не было.
func (o *Orchestrator) View() *render.View {
	o.mu.RLock()
	result := o.result
	o.mu.RUnlock()

	if result == nil {
		return nil
	}
	s := o.session.Get()
	v := render.Render(*result, s.Files, s.ID)
	return &v
}

func (o *Orchestrator) Comparison() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.comparison == nil {
		return ""
	}
	return render.PairLabel(o.comparison.File1, o.comparison.File2, o.comparison.SimilarityScore)
}

func (o *Orchestrator) Conversation() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.conversation
}

// Controls: analyze, converse и cleanup недоступны, пока открыт канал прогресса.
func (o *Orchestrator) Controls() models.Controls {
	s := o.session.Get()
	_, busy := o.gate.Active()
	ready := s.Active() && len(s.Files) > 0 && !busy

	return models.Controls{
		Upload:   !busy,
		Analyze:  ready,
		Converse: ready,
		Compare:  s.Active() && len(s.Files) > 1,
		Download: s.Active(),
		Cleanup:  s.Active() && !busy,
	}
}

func (o *Orchestrator) State() State {
	st := State{
		Session:      o.Session(),
		Controls:     o.Controls(),
		Progress:     o.Progress(),
		View:         o.View(),
		Comparison:   o.Comparison(),
		Conversation: o.Conversation(),
	}
	if n, ok := o.board.Current(); ok {
		st.Notification = &n
	}
	return st
}

func (o *Orchestrator) DismissNotification() {
	o.board.Dismiss()
}

func (o *Orchestrator) reject(message string, cause error) error {
	o.board.Warning(message)
	return &Error{Kind: KindValidation, Message: message, Err: cause}
}

func (o *Orchestrator) fail(logger zerolog.Logger, message string, cause error) error {
	logger.Error().Err(cause).Msg(message)
	o.board.Danger(message)
	return &Error{Kind: KindServer, Message: message, Err: cause}
}

// pipeline - длительная операция с каналом прогресса.
type pipeline struct {
	name    string
	status  string
	timeout time.Duration
	open    func(ctx context.Context, opID string) (io.ReadCloser, error)
	// complete применяет полезную нагрузку и возвращает итоговый статус индикатора
	complete func(payload []byte) (string, error)
}

// run занимает gate, ведет канал до терминального события и вызывает complete,
// пока gate еще занят. Индикатор скрывается на любом исходе.
func (o *Orchestrator) run(ctx context.Context, p pipeline) error {
	opID := o.newOpID()
	release, err := o.gate.Acquire(opID)
	if err != nil {
		return o.reject(MsgBusy, err)
	}
	defer release()

	logger := o.logger.With().
		Str("operation_id", opID).
		Str("operation", p.name).
		Logger()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	finalStatus := ""
	o.display.Begin(opID, p.status)
	defer func() { o.display.End(opID, finalStatus) }()

	logger.Info().Msg("Operation started")

	stream, err := p.open(ctx, opID)
	if err != nil {
		return o.fail(logger, userMessage(err), err)
	}

	// срок задан в ctx: он ограничивает и запрос, и поток
	payload, err := progress.NewChannel(opID, o.display, logger).Run(ctx, stream)
	if err != nil {
		return o.fail(logger, userMessage(err), err)
	}

	finalStatus, err = p.complete(payload)
	if err != nil {
		if !errors.Is(err, integration.ErrMalformedResponse) {
			err = errors.Join(integration.ErrMalformedResponse, err)
		}
		return o.fail(logger, MsgMalformed, err)
	}

	logger.Info().Msg("Operation completed")
	return nil
}

func (o *Orchestrator) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.RequestTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
