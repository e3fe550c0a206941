package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/amishk599/atsexpert/internal/model"
)

func init() {
	// pdfcpu otherwise creates a config dir under the user's home on first use.
	api.DisableConfigDir()
}

// ErrNoBackend is returned by a Rasterizer when its rendering tool is not installed.
var ErrNoBackend = errors.New("no rendering backend available")

// Options controls how pages are rasterized.
type Options struct {
	DPI      int
	Format   string // "jpeg" or "png"
	MaxPages int    // 0 renders every page
}

// MIMEType returns the image MIME type produced for o.Format.
func (o Options) MIMEType() string {
	if o.Format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

// Rasterizer turns the PDF at pdfPath into one image file per page inside
// outDir and returns their paths.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error)
}

// Renderer converts uploaded PDFs into ordered page images.
type Renderer struct {
	backend Rasterizer
	opts    Options
	logger  *slog.Logger
}

// NewRenderer creates a Renderer that rasterizes through backend.
func NewRenderer(backend Rasterizer, opts Options, logger *slog.Logger) *Renderer {
	if opts.DPI == 0 {
		opts.DPI = 150
	}
	if opts.Format == "" {
		opts.Format = "jpeg"
	}
	return &Renderer{backend: backend, opts: opts, logger: logger}
}

// Render returns one PageImage per page of doc, first page first.
// Every failure is a *model.ConversionError.
func (r *Renderer) Render(ctx context.Context, doc model.Document) ([]model.PageImage, error) {
	start := time.Now()

	pageCount, err := PageCount(doc.Data)
	if err != nil {
		return nil, err
	}

	want := pageCount
	if r.opts.MaxPages > 0 && r.opts.MaxPages < want {
		want = r.opts.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "atsexpert-render-*")
	if err != nil {
		return nil, &model.ConversionError{Reason: "could not create a temp directory", Err: err}
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(srcPath, doc.Data, 0o600); err != nil {
		return nil, &model.ConversionError{Reason: "could not stage the PDF", Err: err}
	}

	outDir := filepath.Join(tmpDir, "pages")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, &model.ConversionError{Reason: "could not create a temp directory", Err: err}
	}

	paths, err := r.backend.Rasterize(ctx, srcPath, outDir, r.opts)
	if err != nil {
		if errors.Is(err, ErrNoBackend) {
			return nil, &model.ConversionError{Reason: "no rendering backend is available on this host", Err: err}
		}
		return nil, &model.ConversionError{Reason: "page rendering failed", Err: err}
	}

	images, err := collectPages(paths, r.opts.MIMEType())
	if err != nil {
		return nil, err
	}
	if len(images) != want {
		return nil, &model.ConversionError{
			Reason: fmt.Sprintf("rendered %d of %d pages", len(images), want),
		}
	}

	if r.logger != nil {
		r.logger.Debug("pdf rendered",
			"file", doc.Name,
			"pages", len(images),
			"backend", r.backend.Name(),
			"elapsed", time.Since(start),
		)
	}
	return images, nil
}

// PageCount validates data as a PDF and returns its number of pages.
func PageCount(data []byte) (n int, err error) {
	if !LooksLikePDF(data) {
		return 0, &model.ConversionError{Reason: "not a PDF file"}
	}

	// pdfcpu can panic on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			n = 0
			err = &model.ConversionError{Reason: "the PDF could not be read", Err: fmt.Errorf("pdfcpu: %v", p)}
		}
	}()

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	n, err = api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, &model.ConversionError{Reason: "the PDF could not be read", Err: err}
	}
	if n == 0 {
		return 0, &model.ConversionError{Reason: "the PDF has no pages"}
	}
	return n, nil
}

// LooksLikePDF reports whether data starts with a PDF header, allowing for
// leading whitespace some generators emit.
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\f\x00"), []byte("%PDF-"))
}

// collectPages reads the rasterized files in page order.
func collectPages(paths []string, mimeType string) ([]model.PageImage, error) {
	type numbered struct {
		page int
		path string
	}
	files := make([]numbered, 0, len(paths))
	for _, p := range paths {
		n, ok := pageNumber(p)
		if !ok {
			return nil, &model.ConversionError{Reason: fmt.Sprintf("unexpected rendered file %q", filepath.Base(p))}
		}
		files = append(files, numbered{page: n, path: p})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })

	images := make([]model.PageImage, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, &model.ConversionError{Reason: fmt.Sprintf("could not read page %d", f.page), Err: err}
		}
		if len(data) == 0 {
			return nil, &model.ConversionError{Reason: fmt.Sprintf("page %d rendered empty", f.page)}
		}
		images = append(images, model.PageImage{Page: f.page, MIMEType: mimeType, Data: data})
	}
	return images, nil
}
