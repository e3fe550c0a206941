package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form over HTTP",
	Long:  "Starts the web form (upload, job description, mode, Analyze); blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides web.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if serveAddr != "" {
		cfg.Web.Addr = serveAddr
	}

	logger.Info("config loaded",
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"addr", cfg.Web.Addr,
		"max_upload_mb", cfg.Web.MaxUpload>>20,
		"history", cfg.History.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, cleanup, err := setupAnalyzer(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to set up analyzer", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := web.NewServer(analyzer, cfg.Web, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("web server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
