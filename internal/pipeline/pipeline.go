package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/atsexpert/internal/model"
	"github.com/amishk599/atsexpert/internal/prompt"
	"github.com/amishk599/atsexpert/internal/render"
	"github.com/amishk599/atsexpert/internal/store"
)

// PageRenderer turns a PDF into page images.
type PageRenderer interface {
	Render(ctx context.Context, doc model.Document) ([]model.PageImage, error)
}

// ModelClient makes the single outbound model call.
type ModelClient interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (string, error)
	Provider() string
	Model() string
}

// Service runs one analysis: render, build the prompt, call the model.
type Service struct {
	renderer PageRenderer
	client   ModelClient
	history  model.HistoryStore
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHistory records every successful analysis in hs. The default keeps nothing.
func WithHistory(hs model.HistoryStore) Option {
	return func(s *Service) { s.history = hs }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service.
func New(renderer PageRenderer, client ModelClient, opts ...Option) *Service {
	s := &Service{
		renderer: renderer,
		client:   client,
		history:  store.NewNopStore(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ model.Analyzer = (*Service)(nil)

// Run renders doc, builds the prompt for mode and sends the first page to the
// model. Errors come back as the taxonomy types in package model.
func (s *Service) Run(ctx context.Context, doc model.Document, mode model.Mode, jobDescription string) (*model.AnalysisResponse, error) {
	start := s.now()
	logger := s.logger.With("file", doc.Name, "mode", string(mode))

	pages, err := s.renderer.Render(ctx, doc)
	if err != nil {
		logger.Warn("render failed", "error", err)
		return nil, err
	}
	if len(pages) == 0 {
		return nil, &model.ConversionError{Reason: "the PDF produced no pages"}
	}
	logger.Debug("rendered pages", "pages", len(pages))

	// render.max_pages may cap the images; report the document's own count.
	pageCount := len(pages)
	if n, err := render.PageCount(doc.Data); err == nil && n > pageCount {
		pageCount = n
	}

	text, err := prompt.Build(mode, jobDescription)
	if err != nil {
		return nil, err
	}

	// Only the first page is sent.
	req := model.AnalysisRequest{
		Prompt:         text,
		JobDescription: jobDescription,
		Image:          pages[0],
	}
	answer, err := s.client.Analyze(ctx, req)
	if err != nil {
		logger.Warn("analysis failed", "provider", s.client.Provider(), "error", err)
		return nil, err
	}

	resp := &model.AnalysisResponse{
		Mode:     mode,
		Text:     answer,
		Provider: s.client.Provider(),
		Model:    s.client.Model(),
		Pages:    pageCount,
		Elapsed:  s.now().Sub(start),
		Warnings: warnings(doc, pageCount),
	}
	logger.Info("analysis complete",
		"provider", resp.Provider,
		"pages", resp.Pages,
		"elapsed", resp.Elapsed.Round(time.Millisecond),
	)

	s.record(ctx, doc, resp, logger)
	return resp, nil
}

// record saves resp to history. A history failure never fails the analysis.
func (s *Service) record(ctx context.Context, doc model.Document, resp *model.AnalysisResponse, logger *slog.Logger) {
	sum := sha256.Sum256(doc.Data)
	rec := model.AnalysisRecord{
		ID:         uuid.NewString(),
		CreatedAt:  s.now(),
		FileName:   doc.Name,
		FileSHA256: hex.EncodeToString(sum[:]),
		Mode:       resp.Mode,
		Provider:   resp.Provider,
		Model:      resp.Model,
		Pages:      resp.Pages,
		Response:   resp.Text,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		logger.Warn("saving history failed", "error", err)
	}
}

func warnings(doc model.Document, pages int) []string {
	var out []string
	if pages > 1 {
		out = append(out, "Only the first page was sent for analysis.")
	}
	info, err := render.Inspect(doc)
	if err == nil && info.TextExtracted && !info.HasTextLayer() {
		out = append(out, "No selectable text was found; an ATS may not be able to read this resume.")
	}
	return out
}
