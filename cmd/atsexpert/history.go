package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/model"
	"github.com/amishk599/atsexpert/internal/store"
)

var (
	historyLimit int
	historyFull  bool
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analyses",
	Long:  "Prints recent analyses from the history database. Requires history.enabled: true in config.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of analyses to show")
	historyCmd.Flags().BoolVar(&historyFull, "full", false, "print each full response")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete analyses older than this (e.g. 720h) instead of listing")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.History.Enabled {
		fmt.Println("History is disabled. Set history.enabled: true in config.yaml to keep analyses.")
		return nil
	}

	hs, err := openHistory(cmd.Context(), cfg.History, setupLogger(debug))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer hs.Close()

	if historyPrune > 0 {
		err = pruneHistory(cmd.Context(), os.Stdout, hs, historyPrune)
	} else {
		err = listHistory(cmd.Context(), os.Stdout, hs, historyLimit, historyFull)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return nil
}

func pruneHistory(ctx context.Context, w io.Writer, hs *store.SQLiteStore, olderThan time.Duration) error {
	n, err := hs.Cleanup(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	fmt.Fprintf(w, "Removed %d analyses older than %s.\n", n, olderThan)
	return nil
}

func listHistory(ctx context.Context, w io.Writer, hs model.HistoryStore, limit int, full bool) error {
	recs, err := hs.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No analyses recorded yet.")
		return nil
	}

	fmt.Fprintf(w, "%-17s %-25s %-24s %-5s %s\n", "When", "File", "Mode", "Pages", "Model")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, r := range recs {
		fmt.Fprintf(w, "%-17s %-25s %-24s %-5d %s/%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(r.FileName, 25), r.Mode.Title(), r.Pages, r.Provider, r.Model)
		if full {
			fmt.Fprintf(w, "\n%s\n\n", strings.TrimSpace(r.Response))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
