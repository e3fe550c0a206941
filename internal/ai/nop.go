package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsexpert/internal/model"
)

// NopProvider answers without any network call. Used by --dry-run.
type NopProvider struct{}

// NewNopProvider returns a NopProvider.
func NewNopProvider() *NopProvider {
	return &NopProvider{}
}

func (n *NopProvider) Name() string { return "nop" }

// Complete echoes what would have been sent.
func (n *NopProvider) Complete(_ context.Context, prompt string, image model.PageImage) (string, error) {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(prompt), "\n")
	return fmt.Sprintf("Dry run: no request was sent.\n\nPrompt starts with: %s\nImage: page %d, %s, %d bytes\n",
		firstLine, image.Page, image.MIMEType, len(image.Data)), nil
}
