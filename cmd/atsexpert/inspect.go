package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsexpert/internal/model"
	"github.com/amishk599/atsexpert/internal/render"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <resume.pdf>...",
	Short: "Report page count and text layer of resume PDFs",
	Long:  "Checks each PDF locally: page count, extractable text per page, and whether the rendering backend is installed. Nothing is sent anywhere.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	backend := render.NewPoppler(cfg.Render.Pdftoppm)
	if backend.Available() {
		fmt.Printf("Renderer: %s (%s)\n\n", backend.Name(), backend.Binary)
	} else {
		fmt.Printf("Renderer: %s NOT FOUND; install poppler-utils to analyze resumes\n\n", backend.Binary)
	}

	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed++
			continue
		}
		info, err := render.Inspect(model.Document{Name: filepath.Base(path), Data: data})
		if err != nil {
			fmt.Printf("%s: %s\n", path, model.UserMessage(err))
			failed++
			continue
		}

		fmt.Printf("%s: %d page(s)\n", path, info.Pages)
		for i, n := range info.TextChars {
			fmt.Printf("  page %-3d %6d text chars\n", i+1, n)
		}
		switch {
		case !info.TextExtracted:
			fmt.Println("  text layer: could not be read")
		case info.HasTextLayer():
			fmt.Println("  text layer: yes")
		default:
			fmt.Println("  text layer: NONE (image-only; an ATS cannot read this resume)")
		}
		if info.Pages > 1 {
			fmt.Println("  note: only page 1 is sent for analysis")
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
	return nil
}
