package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/model"
	"github.com/amishk599/atsexpert/internal/tui"
)

var (
	tuiResume string
	tuiMode   string
	tuiJDFile string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive analysis form",
	Long:  "Opens a terminal form: resume path, optional job description, analysis mode, Analyze.",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiResume, "resume", "", "pre-fill the resume path")
	tuiCmd.Flags().StringVar(&tuiMode, "mode", "", "pre-select an analysis mode")
	tuiCmd.Flags().StringVar(&tuiJDFile, "jd", "", "pre-fill the job description from a file")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Any log output while the alt-screen is up corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if debug {
		f, err := os.Create("atsexpert-debug.log")
		if err != nil {
			return err
		}
		defer f.Close()
		silentLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	opts := tui.Options{ResumePath: tuiResume}
	if tuiMode != "" {
		mode, err := model.ParseMode(tuiMode)
		if err != nil {
			fmt.Fprintln(os.Stderr, model.UserMessage(err))
			os.Exit(1)
		}
		opts.Mode = mode
	}
	if tuiJDFile != "" {
		jd, err := os.ReadFile(tuiJDFile)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		opts.JobDescription = string(jd)
	}

	analyzer, cleanup, err := setupAnalyzer(cmd.Context(), cfg, false, silentLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up analyzer: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	return tui.Run(analyzer, opts)
}
