package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/almeera/ultah/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIProvider struct {
	client openai.Client
	model  openai.ChatModel
}

var _ Moderator = (*openAIProvider)(nil)

func newOpenAIProvider(cfg config.LLMConfig, httpClient *http.Client) Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAIProvider{
		client: openai.NewClient(opts...),
		model:  openai.ChatModel(cfg.Model),
	}
}

func (p *openAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: openai.Int(int64(normalizeMaxTokens(req.MaxTokens))),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response has no choices")
	}

	return &ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Moderate runs text through the OpenAI moderation endpoint.
func (p *openAIProvider) Moderate(ctx context.Context, text string) (*Moderation, error) {
	resp, err := p.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModelOmniModerationLatest,
	})
	if err != nil {
		return nil, fmt.Errorf("openai moderation: %w", err)
	}
	if len(resp.Results) == 0 {
		return &Moderation{}, nil
	}

	result := resp.Results[0]
	out := &Moderation{Flagged: result.Flagged}
	if !result.Flagged {
		return out, nil
	}

	var categories map[string]bool
	if err := json.Unmarshal([]byte(result.Categories.RawJSON()), &categories); err == nil {
		for name, hit := range categories {
			if hit {
				out.Categories = append(out.Categories, name)
			}
		}
		sort.Strings(out.Categories)
	}
	return out, nil
}
