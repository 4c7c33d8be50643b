package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/integration"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/notify"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/progress"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/report"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/session"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/workflow"
	"github.com/rs/zerolog"
)

// Components - общая сборка для serve и run.
type Components struct {
	Workbench *workflow.Orchestrator
	Reports   report.Sink
	closers   []io.Closer
}

func Build(cfg *config.Config, log zerolog.Logger, sinks []notify.Sink, observers ...progress.Observer) (*Components, error) {
	c := &Components{}

	if cfg.Notify.AMQP.Enabled {
		forwarder, err := notify.DialAMQP(cfg.Notify.AMQP.URL, cfg.Notify.AMQP.Exchange, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect notification broker: %w", err)
		}
		sinks = append(sinks, forwarder)
		c.closers = append(c.closers, forwarder)
	}

	reports, err := NewReportSink(cfg.Report)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Reports = reports

	c.Workbench = workflow.NewOrchestrator(
		integration.NewBackendClient(cfg.Backend.URL, cfg.Backend.Timeout, log),
		session.NewStore(),
		notify.NewBoard(log, sinks...),
		progress.NewDisplay(observers...),
		workflow.Options{
			MaxFiles:       cfg.Limits.MaxFiles,
			MaxFileSize:    cfg.Limits.MaxFileSize,
			UploadTimeout:  cfg.Progress.UploadTimeout,
			AnalyzeTimeout: cfg.Progress.AnalyzeTimeout,
			RequestTimeout: cfg.Backend.Timeout,
		},
		log,
	)

	return c, nil
}

func NewReportSink(cfg config.ReportConfig) (report.Sink, error) {
	switch cfg.Provider {
	case "minio":
		sink, err := report.NewMinIOSink(report.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			Region:    cfg.MinIO.Region,
			Prefix:    cfg.MinIO.Prefix,
			UseSSL:    cfg.MinIO.UseSSL,
			Timeout:   cfg.MinIO.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init report storage: %w", err)
		}
		return sink, nil
	case "file", "":
		return report.NewFileSink(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown report provider %q", cfg.Provider)
	}
}

func (c *Components) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
