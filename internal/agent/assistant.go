package agent

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/almeera/ultah/internal/llm"
	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/runtime"
)

const defaultHistoryLimit = 20

// AssistantOptions configures an Assistant.
type AssistantOptions struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
	// HistoryLimit caps retained messages per conversation.
	HistoryLimit int
	// Moderation screens input when the provider also implements llm.Moderator.
	Moderation bool
}

// Assistant answers patient questions about treatments, keeping a bounded
// history per conversation.
type Assistant struct {
	provider  llm.Provider
	moderator llm.Moderator
	opts      AssistantOptions

	mu        sync.Mutex
	histories map[string][]llm.ChatMessage
}

var _ runtime.Handler = (*Assistant)(nil)

// NewAssistant builds an Assistant. A nil provider makes every reply the
// unavailable notice.
func NewAssistant(provider llm.Provider, opts AssistantOptions) *Assistant {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	a := &Assistant{
		provider:  provider,
		opts:      opts,
		histories: make(map[string][]llm.ChatMessage),
	}
	if m, ok := provider.(llm.Moderator); ok && opts.Moderation {
		a.moderator = m
	}
	return a
}

// Reply answers text within the named conversation. Failures are logged and
// answered with a fixed notice so the caller always has something to send.
func (a *Assistant) Reply(ctx context.Context, conversation, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	logger := logging.Logger().With("conversation", conversation)

	if a.moderator != nil {
		verdict, err := a.moderator.Moderate(ctx, text)
		switch {
		case err != nil:
			logger.Warn("moderation unavailable; continuing", "err", err)
		case verdict.Flagged:
			logger.Info("message flagged by moderation", "categories", verdict.Categories)
			return flaggedReply
		}
	}

	if a.provider == nil {
		return unavailableReply
	}

	messages := append(a.history(conversation), llm.UserMessage(text))
	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: a.opts.SystemPrompt,
		Messages:     messages,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		logger.Error("assistant reply failed", "err", err)
		return unavailableReply
	}

	reply := strings.TrimSpace(resp.Content)
	a.remember(conversation, append(messages, llm.AssistantMessage(reply)))
	return reply
}

// HandleMessage implements runtime.Handler.
func (a *Assistant) HandleMessage(ctx context.Context, w runtime.ResponseWriter, msg *runtime.Message) error {
	if w == nil {
		return errors.New("response writer is required")
	}
	if msg == nil {
		return errors.New("message is required")
	}
	reply := a.Reply(ctx, msg.From, msg.Text)
	if reply == "" {
		return nil
	}
	return w.WriteMessage(ctx, reply)
}

// Reset forgets one conversation.
func (a *Assistant) Reset(conversation string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.histories, conversation)
}

func (a *Assistant) history(conversation string) []llm.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]llm.ChatMessage(nil), a.histories[conversation]...)
}

func (a *Assistant) remember(conversation string, messages []llm.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories[conversation] = trimHistory(messages, a.opts.HistoryLimit)
}

// trimHistory keeps at most limit trailing messages, starting on a user turn.
func trimHistory(messages []llm.ChatMessage, limit int) []llm.ChatMessage {
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	for len(messages) > 0 && messages[0].Role != llm.RoleUser {
		messages = messages[1:]
	}
	return append([]llm.ChatMessage(nil), messages...)
}
