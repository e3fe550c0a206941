package model

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Document is an uploaded resume held in memory for one request.
type Document struct {
	Name string // original file name, used only for display and logging
	Data []byte // raw PDF bytes
}

// PageImage is one rendered page of a Document.
type PageImage struct {
	Page     int    // 1-based page number
	MIMEType string // "image/jpeg" or "image/png"
	Data     []byte // encoded image bytes
}

// Empty reports whether the image carries no bytes.
func (p PageImage) Empty() bool {
	return len(p.Data) == 0
}

// Mode selects which analysis prompt is sent to the model.
type Mode string

const (
	ModeParse    Mode = "parse"
	ModeFit      Mode = "fit"
	ModeScore    Mode = "score"
	ModeRedFlags Mode = "redflags"
)

// AllModes lists the modes in display order.
var AllModes = []Mode{ModeFit, ModeScore, ModeParse, ModeRedFlags}

var modeTitles = map[Mode]string{
	ModeFit:      "Fit Summary & Analysis",
	ModeScore:    "Percentage Match",
	ModeParse:    "Resume Parser",
	ModeRedFlags: "Red Flags Checker",
}

var modeAliases = map[string]Mode{
	"parse":       ModeParse,
	"parser":      ModeParse,
	"fit":         ModeFit,
	"fit-summary": ModeFit,
	"score":       ModeScore,
	"ats":         ModeScore,
	"ats-score":   ModeScore,
	"match":       ModeScore,
	"redflags":    ModeRedFlags,
	"red-flags":   ModeRedFlags,
	"flags":       ModeRedFlags,
}

// Title returns the human-readable name of m, or the raw value when unknown.
func (m Mode) Title() string {
	if t, ok := modeTitles[m]; ok {
		return t
	}
	return string(m)
}

// Aliases returns the alternative names accepted for m, sorted.
func (m Mode) Aliases() []string {
	var out []string
	for alias, target := range modeAliases {
		if target == m && alias != string(m) {
			out = append(out, alias)
		}
	}
	slices.Sort(out)
	return out
}

// Valid reports whether m is one of the fixed modes.
func (m Mode) Valid() bool {
	_, ok := modeTitles[m]
	return ok
}

// ParseMode resolves a mode name, alias or title (case-insensitive).
// An empty or unknown input returns a ConfigurationError.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", &ConfigurationError{Field: "mode", Reason: "no analysis mode selected"}
	}
	if m, ok := modeAliases[key]; ok {
		return m, nil
	}
	for m, title := range modeTitles {
		if strings.EqualFold(title, key) {
			return m, nil
		}
	}
	return "", &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown analysis mode %q", s)}
}

// AnalysisRequest is what the model client sends for one user action.
// Built once per action and not modified afterwards.
type AnalysisRequest struct {
	Prompt         string
	JobDescription string
	Image          PageImage
}

// AnalysisResponse is the model's free-form answer plus run metadata.
type AnalysisResponse struct {
	Mode     Mode
	Text     string
	Provider string
	Model    string
	Pages    int
	Elapsed  time.Duration
	Warnings []string
}

// Analyzer runs one resume analysis end to end.
type Analyzer interface {
	Run(ctx context.Context, doc Document, mode Mode, jobDescription string) (*AnalysisResponse, error)
}
