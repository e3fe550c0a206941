package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/amishk599/atsexpert/internal/model"
)

// GeminiProvider calls Google's Gemini API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider for the Gemini Developer API.
// baseURL may be empty to use Google's endpoint.
func NewGeminiProvider(ctx context.Context, apiKey, modelName, baseURL string, httpClient *http.Client) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiProvider{client: client, model: modelName}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete sends the prompt text followed by the page image as inline data.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string, image model.PageImage) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image.Data, image.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", p.mapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &model.EmptyResponseError{Provider: p.Name()}
	}
	return resp.Text(), nil
}

// mapError sorts genai errors into the taxonomy. Gemini answers an invalid
// key with 400 INVALID_ARGUMENT rather than 401, so the message is checked too.
func (p *GeminiProvider) mapError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return &model.ServiceError{Provider: p.Name(), Err: err}
	}

	if apiErr.Code == http.StatusBadRequest && isInvalidKeyMessage(apiErr.Message) {
		return &model.AuthenticationError{Provider: p.Name(), Err: err}
	}
	return statusError(p.Name(), apiErr.Code, err)
}

func isInvalidKeyMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "api key expired")
}
