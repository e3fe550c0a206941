package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/atsexpert/internal/config"
	"github.com/amishk599/atsexpert/internal/model"
)

// NewProvider builds the provider named by cfg.Provider. A missing API key is
// a ConfigurationError so no request is ever sent without a credential.
func NewProvider(ctx context.Context, cfg config.AIConfig, httpClient *http.Client) (LLMProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &model.ConfigurationError{
			Field:  "ai.api_key",
			Reason: missingKeyHint(cfg.Provider),
		}
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, httpClient)
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, httpClient), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, httpClient), nil
	default:
		return nil, &model.ConfigurationError{
			Field:  "ai.provider",
			Reason: fmt.Sprintf("unsupported provider %q", cfg.Provider),
		}
	}
}

func missingKeyHint(provider string) string {
	names := config.APIKeyEnvNames(provider)
	if len(names) == 0 {
		return "no API key configured"
	}
	return fmt.Sprintf("no API key configured; set %s in .env or ai.api_key in config", strings.Join(names, " or "))
}
