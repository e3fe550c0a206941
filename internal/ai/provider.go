package ai

import (
	"context"

	"github.com/amishk599/atsexpert/internal/model"
)

// LLMProvider sends a prompt and one page image to a hosted model and returns
// the raw text response. Implementations make exactly one request per call
// and return errors from the model package's taxonomy where they can tell
// them apart.
type LLMProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string, image model.PageImage) (string, error)
}
