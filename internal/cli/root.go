package cli

import (
	"fmt"
	"os"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/workbench/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Document analysis workbench",
	Long: `workbench drives a document analysis backend: upload a set of text files,
run similarity and AI-content analysis, compare pairs, converse and download reports.

Use "workbench serve" for the browser page or "workbench run" for a one-shot terminal session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.New()
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./config/config.yaml)")
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor), nil
}
