package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Poppler rasterizes with poppler-utils' pdftoppm.
type Poppler struct {
	Binary string // name or path of pdftoppm
}

// NewPoppler returns a Poppler backend; an empty binary means "pdftoppm" on PATH.
func NewPoppler(binary string) *Poppler {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Poppler{Binary: binary}
}

func (p *Poppler) Name() string { return "pdftoppm" }

// Available reports whether the pdftoppm binary can be found.
func (p *Poppler) Available() bool {
	_, err := exec.LookPath(p.Binary)
	return err == nil
}

// Rasterize runs pdftoppm and returns the generated files. pdftoppm names
// them <prefix>-<page>.<ext>, zero-padding the page to the width of the
// last page number.
func (p *Poppler) Rasterize(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error) {
	bin, err := exec.LookPath(p.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoBackend, p.Binary, err)
	}

	args := []string{"-r", strconv.Itoa(opts.DPI)}
	ext := ".jpg"
	if opts.Format == "png" {
		args = append(args, "-png")
		ext = ".png"
	} else {
		args = append(args, "-jpeg", "-jpegopt", "quality=90")
	}
	if opts.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(opts.MaxPages))
	}
	prefix := filepath.Join(outDir, "page")
	args = append(args, pdfPath, prefix)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	paths, err := filepath.Glob(prefix + "-*" + ext)
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	return paths, nil
}

// pageNumber extracts N from ".../page-N.ext" (N possibly zero-padded).
func pageNumber(path string) (int, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	i := strings.LastIndex(base, "-")
	if i < 0 || i == len(base)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
