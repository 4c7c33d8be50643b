package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server - HTTP-сервер workbench. Маршруты приложения монтируются в корневой
// роутер после цепочки middleware: chi не дает вызывать Use после маршрутов.
type Server struct {
	http   *http.Server
	cfg    ServerConfig
	logger zerolog.Logger

	app     chi.Router
	root    *chi.Mux
	mounted bool
}

func NewServer(cfg ServerConfig, router chi.Router, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "http").Logger(),
		app:    router,
		root:   chi.NewRouter(),
	}

	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.root,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		// 0 допустим: ответы upload и analyze держатся до конца потока прогресса
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// SetupMiddleware ставит стандартные middleware chi, затем переданные в их порядке
// (первый - внешний), и монтирует маршруты. Повторный вызов ничего не делает.
func (s *Server) SetupMiddleware(mws ...func(http.Handler) http.Handler) {
	if s.mounted {
		return
	}

	s.root.Use(middleware.RequestID)
	s.root.Use(middleware.RealIP)
	s.root.Use(middleware.StripSlashes)
	s.root.Use(middleware.CleanPath)
	s.root.Use(middleware.GetHead)

	for _, mw := range mws {
		if mw != nil {
			s.root.Use(mw)
		}
	}

	s.root.Mount("/", s.app)
	s.mounted = true
}

// Start блокируется до Shutdown. Штатная остановка не считается ошибкой.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

func (s *Server) Serve(l net.Listener) error {
	s.logger.Info().Str("address", l.Addr().String()).Msg("Starting server")
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ждет активные запросы не дольше ShutdownTimeout, если у ctx нет своего срока.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	s.logger.Info().Msg("Shutting down server")
	return s.http.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.root
}
