package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/almeera/ultah/internal/config"
)

const (
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
	openRouterAppTitle   = "ultah"
	maxErrorBody         = 512
)

// openRouterProvider speaks the OpenAI-compatible chat completions API that
// OpenRouter exposes, with OpenRouter's app attribution headers.
type openRouterProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func newOpenRouterProvider(cfg config.LLMConfig, httpClient *http.Client) Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultOpenRouterURL
	}
	return &openRouterProvider{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: base + "/chat/completions",
		client:   httpClient,
	}
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
}

type openRouterResponse struct {
	Choices []struct {
		Message      openRouterMessage `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *openRouterProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload := openRouterRequest{
		Model:       p.model,
		Messages:    make([]openRouterMessage, 0, len(req.Messages)+1),
		MaxTokens:   normalizeMaxTokens(req.MaxTokens),
		Temperature: req.Temperature,
	}
	if req.SystemPrompt != "" {
		payload.Messages = append(payload.Messages, openRouterMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
		payload.Messages = append(payload.Messages, openRouterMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal openrouter request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build openrouter request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("X-Title", openRouterAppTitle)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openrouter response: %w", err)
	}

	var parsed openRouterResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			detail = parsed.Error.Message
		}
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody]
		}
		return nil, fmt.Errorf("openrouter API returned %s: %s", httpResp.Status, detail)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode openrouter response: %w", decodeErr)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openrouter error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter response has no choices")
	}

	return &ChatResponse{
		Content: parsed.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}
