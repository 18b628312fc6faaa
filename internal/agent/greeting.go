// Package agent turns records into greeting text and answers patient chat
// messages through an llm.Provider.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/almeera/ultah/internal/llm"
	"github.com/almeera/ultah/internal/logging"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Result is the outcome of one greeting generation. Text is always usable;
// Err records why the fallback was taken, if it was.
type Result struct {
	Text     string
	Fallback bool
	Err      error
}

// Generator produces birthday greetings. A nil Provider always yields the
// fallback template.
type Generator struct {
	Provider     llm.Provider
	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
	// Timeout bounds each provider call. Zero means no extra bound.
	Timeout time.Duration
}

// Generate never fails: provider errors and empty replies degrade to
// FallbackMessage.
func (g *Generator) Generate(ctx context.Context, name string) Result {
	if g == nil || g.Provider == nil {
		return Result{Text: FallbackMessage(name), Fallback: true, Err: llm.ErrNotConfigured}
	}

	callCtx := ctx
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	resp, err := g.Provider.Chat(callCtx, llm.ChatRequest{
		SystemPrompt: g.SystemPrompt,
		Messages:     []llm.ChatMessage{llm.UserMessage(BirthdayPrompt(name))},
		MaxTokens:    g.MaxTokens,
		Temperature:  g.Temperature,
	})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		logging.Logger().Warn("greeting generation failed; using fallback", "name", name, "err", err)
		return Result{Text: FallbackMessage(name), Fallback: true, Err: err}
	}
	return Result{Text: strings.TrimSpace(resp.Content)}
}

// TitleName normalises sheet names such as "SITI aminah" to "Siti Aminah".
func TitleName(name string) string {
	return cases.Title(language.Indonesian).String(strings.Join(strings.Fields(name), " "))
}

// OutgoingText prefixes msg with the salutation "Kak <first name>". Names
// that already start with "kak" are used whole so the honorific is not
// doubled.
func OutgoingText(name, msg string) string {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		cleaned = "Kak"
	}
	first := strings.Fields(cleaned)[0]
	if strings.HasPrefix(strings.ToLower(first), "kak") {
		return cleaned + " " + msg
	}
	return "Kak " + first + " " + msg
}
