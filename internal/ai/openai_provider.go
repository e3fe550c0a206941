package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/amishk599/atsexpert/internal/model"
)

// OpenAIProvider calls the OpenAI /v1/chat/completions endpoint with a
// text part and an image part in one user message.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider targeting the OpenAI API. baseURL may
// be empty for api.openai.com or point at any compatible endpoint.
func NewOpenAIProvider(baseURL, apiKey, modelName string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends the prompt with the page image attached as a base64 data URL.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, image model.PageImage) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", image.MIMEType, base64.StdEncoding.EncodeToString(image.Data))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					},
				},
			},
		}},
	})
	if err != nil {
		return "", p.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &model.EmptyResponseError{Provider: p.Name()}
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(p.Name(), apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(p.Name(), reqErr.HTTPStatusCode, err)
	}
	return &model.ServiceError{Provider: p.Name(), Err: err}
}
