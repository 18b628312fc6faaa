package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/almeera/ultah/internal/config"
)

const defaultMaxTokens = 1024

func normalizeMaxTokens(v int) int {
	if v <= 0 {
		return defaultMaxTokens
	}
	return v
}

// NewProviderFromConfig builds an LLM provider from the llm config section.
// It returns ErrNotConfigured when the API key is empty.
func NewProviderFromConfig(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	return newProvider(ctx, cfg, nil)
}

func newProvider(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%s model is required", cfg.Provider)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderOpenAI:
		return newOpenAIProvider(cfg, httpClient), nil
	case config.ProviderAnthropic:
		return newAnthropicProvider(cfg, httpClient), nil
	case config.ProviderOpenRouter:
		return newOpenRouterProvider(cfg, httpClient), nil
	case config.ProviderGemini:
		return newGeminiProvider(ctx, cfg, httpClient)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
