package app

import (
	"context"
	"errors"
	"net"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/handler"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/middleware"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/render"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/server"
	"github.com/rs/zerolog"
)

type App struct {
	server     *server.Server
	handler    *handler.Handler
	components *Components
	logger     zerolog.Logger
	config     *config.Config
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	components, err := Build(cfg, log, nil)
	if err != nil {
		return nil, err
	}

	pages, err := render.NewPageRenderer()
	if err != nil {
		components.Close()
		return nil, err
	}

	h := handler.NewHandler(components.Workbench, pages, components.Reports, handler.Config{
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		RequestTimeout: cfg.Backend.Timeout,
	}, log)

	srv := server.NewServer(server.ServerConfig{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, h.GetRouter(), log)

	// cors снаружи, recovery ближе всего к обработчику
	srv.SetupMiddleware(
		middleware.NewCORS(cfg.CORS),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)

	return &App{
		server:     srv,
		handler:    h,
		components: components,
		logger:     log,
		config:     cfg,
	}, nil
}

func (a *App) Run() error {
	return a.server.Start()
}

func (a *App) Serve(l net.Listener) error {
	return a.server.Serve(l)
}

// Shutdown останавливает сервер, затем фоновые операции и соединения.
func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(
		a.server.Shutdown(ctx),
		a.handler.Close(ctx),
		a.components.Close(),
	)
}
