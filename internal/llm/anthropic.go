package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/almeera/ultah/internal/config"
	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

func newAnthropicProvider(cfg config.LLMConfig, httpClient *http.Client) Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(cfg.Model),
	}
}

// Chat sends the conversation to the Messages API. Consecutive turns from the
// same role are joined into one message since the API requires alternation.
func (p *anthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var turns []ChatMessage
	for _, msg := range req.Messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
		if n := len(turns); n > 0 && turns[n-1].Role == msg.Role {
			turns[n-1].Content += "\n\n" + msg.Content
			continue
		}
		turns = append(turns, msg)
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: int64(normalizeMaxTokens(req.MaxTokens)),
		Messages:  make([]anthropic.MessageParam, 0, len(turns)),
	}
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		tb, ok := block.AsAny().(anthropic.TextBlock)
		if !ok || tb.Text == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(tb.Text)
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic response has no text (stop reason %q)", msg.StopReason)
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &ChatResponse{
		Content: text.String(),
		Usage:   TokenUsage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}, nil
}
