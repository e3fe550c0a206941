package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/amishk599/atsexpert/internal/model"
)

const anthropicMaxTokens = 4096

// AnthropicProvider calls Anthropic's Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a provider for the Messages API. The SDK's
// automatic retries are switched off: one call, one attempt.
func NewAnthropicProvider(baseURL, apiKey, modelName string, httpClient *http.Client) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  modelName,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete sends the page image followed by the prompt and concatenates the
// returned text blocks.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, image model.PageImage) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(image.MIMEType, base64.StdEncoding.EncodeToString(image.Data)),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError(p.Name(), apiErr.StatusCode, err)
		}
		return "", &model.ServiceError{Provider: p.Name(), Err: err}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}
