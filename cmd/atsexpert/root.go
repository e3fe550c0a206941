package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/ai"
	"github.com/amishk599/atsexpert/internal/config"
	"github.com/amishk599/atsexpert/internal/model"
	"github.com/amishk599/atsexpert/internal/pipeline"
	"github.com/amishk599/atsexpert/internal/render"
	"github.com/amishk599/atsexpert/internal/store"
)

var (
	cfgPath string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "atsexpert",
	Short: "ATS resume expert",
	Long:  "atsexpert renders a resume PDF, asks a hosted AI model to evaluate it the way an ATS would, and shows the answer.",
	// With no subcommand, open the interactive form.
	RunE:         runTUI,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: ATSEXPERT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads the dotenv file, then resolves the config path and parses it.
// Priority: explicit path arg > ATSEXPERT_CONFIG env var > "./config.yaml".
// A missing ./config.yaml falls back to defaults; an explicit path must exist.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	implicit := false
	if path == "" {
		if env := os.Getenv("ATSEXPERT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
			implicit = true
		}
	}
	if implicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default()
		}
	}
	return config.Load(path)
}

// setupLogger logs to stderr; stdout carries analysis output.
func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// setupAnalyzer wires renderer, model client and optional history into a
// pipeline. The returned cleanup closes the history store.
func setupAnalyzer(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (model.Analyzer, func(), error) {
	renderer := render.NewRenderer(
		render.NewPoppler(cfg.Render.Pdftoppm),
		render.Options{DPI: cfg.Render.DPI, Format: cfg.Render.Format, MaxPages: cfg.Render.MaxPages},
		logger,
	)

	var provider ai.LLMProvider
	if dryRun {
		logger.Info("dry-run mode enabled, no request will be sent")
		provider = ai.NewNopProvider()
	} else {
		p, err := ai.NewProvider(ctx, cfg.AI, &http.Client{})
		if err != nil {
			var cfgErr *model.ConfigurationError
			if !errors.As(err, &cfgErr) {
				return nil, nil, err
			}
			// Keep the UI usable; every analysis reports the problem.
			logger.Warn("model provider not configured", "error", err)
			return unconfigured{err: err}, func() {}, nil
		}
		provider = p
	}
	client := ai.NewClient(provider, cfg.AI.Model, cfg.AI.Timeout, logger)

	// In dry-run mode, use a NopStore so nothing is persisted.
	var history model.HistoryStore = store.NewNopStore()
	cleanup := func() {}
	if cfg.History.Enabled && !dryRun {
		hs, err := openHistory(ctx, cfg.History, logger)
		if err != nil {
			return nil, nil, err
		}
		history = hs
		cleanup = func() { hs.Close() }
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithHistory(history)}

	logger.Debug("analyzer ready",
		"provider", client.Provider(),
		"model", client.Model(),
		"dpi", cfg.Render.DPI,
		"history", cfg.History.Enabled,
	)
	return pipeline.New(renderer, client, opts...), cleanup, nil
}

// openHistory opens the sqlite history and drops analyses past the
// configured retention.
func openHistory(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) (*store.SQLiteStore, error) {
	hs, err := store.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Retention > 0 {
		n, err := hs.Cleanup(ctx, cfg.Retention)
		if err != nil {
			logger.Warn("history cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("history cleanup", "removed", n, "retention", cfg.Retention)
		}
	}
	return hs, nil
}

// unconfigured answers every analysis with the configuration error that
// prevented the model client from being built.
type unconfigured struct {
	err error
}

func (u unconfigured) Run(context.Context, model.Document, model.Mode, string) (*model.AnalysisResponse, error) {
	return nil, u.err
}
