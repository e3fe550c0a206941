package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/model"
	"github.com/amishk599/atsexpert/internal/prompt"
	"github.com/amishk599/atsexpert/internal/tui"
)

var (
	analyzeResume string
	analyzeMode   string
	analyzeJDFile string
	analyzeJDText string
	analyzeOut    string
	analyzeDryRun bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one resume and print the result",
	Long:  "One-shot analysis: renders the PDF, sends the first page with the mode's prompt, prints the model's answer.",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "resume PDF to analyze (required)")
	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", "", "analysis mode: fit, score, parse, redflags (prompted when omitted on a terminal)")
	analyzeCmd.Flags().StringVar(&analyzeJDFile, "jd", "", "file containing the job description")
	analyzeCmd.Flags().StringVar(&analyzeJDText, "jd-text", "", "job description text")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "write the result to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "render and build the prompt, but do not call the model")
	analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("jd", "jd-text")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	mode, err := resolveMode(analyzeMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, model.UserMessage(err))
		os.Exit(1)
	}
	if mode == "" {
		return nil // quit from the picker
	}

	jd := analyzeJDText
	if analyzeJDFile != "" {
		data, err := os.ReadFile(analyzeJDFile)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		jd = string(data)
	}

	data, err := os.ReadFile(analyzeResume)
	if err != nil {
		fmt.Fprintln(os.Stderr, model.UserMessage(&model.ConversionError{Reason: "could not read " + analyzeResume, Err: err}))
		os.Exit(1)
	}
	doc := model.Document{Name: filepath.Base(analyzeResume), Data: data}

	analyzer, cleanup, err := setupAnalyzer(cmd.Context(), cfg, analyzeDryRun, logger)
	if err != nil {
		logger.Error("failed to set up analyzer", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	run := func(ctx context.Context) (*model.AnalysisResponse, error) {
		return analyzer.Run(ctx, doc, mode, jd)
	}

	var resp *model.AnalysisResponse
	// The spinner only makes sense on a terminal, and debug logs would tear it.
	if isTerminal(os.Stderr) && !debug {
		resp, err = tui.RunLoader(fmt.Sprintf("Analyzing %s (%s)", doc.Name, mode.Title()), run)
	} else {
		resp, err = run(cmd.Context())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, model.UserMessage(err))
		os.Exit(1)
	}

	if analyzeDryRun {
		if err := writePrompt(os.Stderr, mode, jd); err != nil {
			fmt.Fprintln(os.Stderr, model.UserMessage(err))
			os.Exit(1)
		}
	}

	out := io.Writer(os.Stdout)
	if analyzeOut != "" {
		f, err := os.Create(analyzeOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	writeResult(out, doc.Name, resp)
	if analyzeOut != "" {
		logger.Info("result written", "path", analyzeOut)
	}
	return nil
}

// resolveMode parses flag, or asks interactively when it is empty.
func resolveMode(flag string) (model.Mode, error) {
	if strings.TrimSpace(flag) != "" {
		return model.ParseMode(flag)
	}
	if !isTerminal(os.Stdin) {
		return model.ParseMode("")
	}
	return tui.RunModePicker(prompt.Modes())
}

// writePrompt prints the prompt a dry run would have sent.
func writePrompt(w io.Writer, mode model.Mode, jd string) error {
	p, err := prompt.Build(mode, jd)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "--- prompt (%d chars) ---\n%s\n", len(p), p)
	return nil
}

func writeResult(w io.Writer, file string, resp *model.AnalysisResponse) {
	fmt.Fprintf(w, "Results for: %s\n", resp.Mode.Title())
	fmt.Fprintf(w, "%s · %d page(s) · %s/%s · %s\n", file, resp.Pages, resp.Provider, resp.Model, resp.Elapsed.Round(100*time.Millisecond))
	for _, warn := range resp.Warnings {
		fmt.Fprintf(w, "! %s\n", warn)
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintln(w, strings.TrimRight(resp.Text, "\n"))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
