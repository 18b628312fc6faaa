// Package llm defines the provider-agnostic chat interface and its backends.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured reports that no API key is available. Callers fall back
// to templated text instead of failing.
var ErrNotConfigured = errors.New("llm provider not configured")

// Provider sends chat requests to an LLM backend.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Moderator screens user input before it reaches the model.
type Moderator interface {
	Moderate(ctx context.Context, text string) (*Moderation, error)
}

// Role is the author role for a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in model conversation history.
type ChatMessage struct {
	Role    Role
	Content string
}

// TokenUsage reports provider token accounting for one response.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ChatRequest is the provider-agnostic request payload.
type ChatRequest struct {
	SystemPrompt string
	Messages     []ChatMessage
	MaxTokens    int
	// Temperature is left to the provider default when nil.
	Temperature *float64
}

// ChatResponse is the provider-agnostic response payload.
type ChatResponse struct {
	Content string
	Usage   TokenUsage
}

// Moderation is the verdict for one moderated input.
type Moderation struct {
	Flagged    bool
	Categories []string
}

// UserMessage is shorthand for a user-authored chat message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage is shorthand for an assistant-authored chat message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}
