package render

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/amishk599/atsexpert/internal/model"
)

// Info summarizes a PDF before it is sent anywhere.
type Info struct {
	Pages     int
	TextChars []int // extracted characters per page, index 0 = page 1

	// TextExtracted is false when the text layer could not be read at all.
	TextExtracted bool
}

// HasTextLayer reports whether any page has extractable text. Resumes
// without one are images to an ATS and cannot be keyword-matched.
func (i Info) HasTextLayer() bool {
	for _, n := range i.TextChars {
		if n > 0 {
			return true
		}
	}
	return false
}

// Inspect reports page count and text-layer coverage for doc.
func Inspect(doc model.Document) (*Info, error) {
	pages, err := PageCount(doc.Data)
	if err != nil {
		return nil, err
	}

	info := &Info{Pages: pages, TextChars: make([]int, pages)}
	counts, err := textChars(doc.Data)
	if err != nil {
		// Text extraction is advisory; pdfcpu already accepted the file.
		return info, nil
	}
	copy(info.TextChars, counts)
	info.TextExtracted = true
	return info, nil
}

func textChars(data []byte) (counts []int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("extract text: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := r.NumPage()
	counts = make([]int, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		counts[i-1] = utf8.RuneCountInString(strings.TrimSpace(text))
	}
	return counts, nil
}
