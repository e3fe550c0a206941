package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/atsexpert/internal/model"
)

// Client performs the single outbound model call for one analysis.
// No retries, no streaming.
type Client struct {
	provider LLMProvider
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient wraps provider. timeout bounds each call; zero means no extra bound.
func NewClient(provider LLMProvider, modelName string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		provider: provider,
		model:    modelName,
		timeout:  timeout,
		logger:   logger,
	}
}

// Provider returns the provider name, e.g. "gemini".
func (c *Client) Provider() string { return c.provider.Name() }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Analyze sends req.Prompt and req.Image and returns the model's text.
func (c *Client) Analyze(ctx context.Context, req model.AnalysisRequest) (string, error) {
	if req.Image.Empty() {
		return "", &model.ConversionError{Reason: "no rendered page to send"}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", &model.ConfigurationError{Field: "prompt", Reason: "prompt is empty"}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.provider.Complete(ctx, req.Prompt, req.Image)
	if err != nil {
		err = classify(c.provider.Name(), err)
		c.logger.Warn("model call failed",
			"provider", c.provider.Name(),
			"model", c.model,
			"elapsed", time.Since(start),
			"error", err,
		)
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", &model.EmptyResponseError{Provider: c.provider.Name()}
	}

	c.logger.Debug("model call complete",
		"provider", c.provider.Name(),
		"model", c.model,
		"elapsed", time.Since(start),
		"chars", len(text),
	)
	return text, nil
}

// classify leaves taxonomy errors alone and turns anything else into a
// ServiceError.
func classify(provider string, err error) error {
	var authErr *model.AuthenticationError
	var svcErr *model.ServiceError
	var emptyErr *model.EmptyResponseError
	var cfgErr *model.ConfigurationError
	var convErr *model.ConversionError
	if errors.As(err, &authErr) || errors.As(err, &svcErr) || errors.As(err, &emptyErr) ||
		errors.As(err, &cfgErr) || errors.As(err, &convErr) {
		return err
	}
	return &model.ServiceError{Provider: provider, Err: err}
}

// statusError maps an HTTP status from a provider into the taxonomy.
func statusError(provider string, status int, err error) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &model.AuthenticationError{Provider: provider, Err: err}
	}
	return &model.ServiceError{Provider: provider, StatusCode: status, Err: err}
}
