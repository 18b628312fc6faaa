package costs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/almeera/ultah/internal/llm"
	"github.com/almeera/ultah/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestEstimateUSD(t *testing.T) {
	t.Parallel()

	cases := []struct {
		provider string
		model    string
	}{
		{"openai", "gpt-4o-mini"},
		{"anthropic", "claude-haiku-4-5"},
		{"anthropic", "claude-sonnet-4-5"},
		{"gemini", "gemini-2.5-flash"},
		{"openrouter", "openai/gpt-4o-mini"},
		{"openrouter", "google/gemini-2.5-pro"},
	}
	for _, tc := range cases {
		usd, ok := EstimateUSD(tc.provider, tc.model, 1_000_000, 1_000_000)
		if !ok {
			t.Fatalf("expected pricing for %s/%s", tc.provider, tc.model)
		}
		if usd <= 0 {
			t.Fatalf("expected positive cost for %s/%s, got %.8f", tc.provider, tc.model, usd)
		}
	}

	mini, _ := EstimateUSD("openai", "gpt-4o-mini", 1_000_000, 0)
	if mini != 0.15 {
		t.Fatalf("expected gpt-4o-mini to match its own rate, got %.4f", mini)
	}
	if _, ok := EstimateUSD("openrouter", "mistral-large", 10, 10); ok {
		t.Fatalf("expected unprefixed openrouter model to have no pricing")
	}
	if _, ok := EstimateUSD("anthropic", "unknown-model", 10, 10); ok {
		t.Fatalf("expected unknown model to have no pricing")
	}
}

func TestTrackerAppendAndSpend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "usage.jsonl")
	tracker := New(path)
	now := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

	records := []Record{
		{Timestamp: now.Add(-1 * time.Hour), Provider: "openai", Model: "gpt-4o-mini", TotalTokens: 100, CostUSD: 1.25},
		{Timestamp: now.AddDate(0, 0, -1), Provider: "openai", Model: "gpt-4o-mini", TotalTokens: 50, CostUSD: 2.50},
		{Timestamp: now.AddDate(0, -1, 0), Provider: "openai", Model: "gpt-4o-mini", TotalTokens: 10, CostUSD: 9.99},
	}
	for _, rec := range records {
		if err := tracker.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Malformed lines are skipped.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open usage file: %v", err)
	}
	_, _ = f.WriteString("not-json\n")
	f.Close()

	spend, err := tracker.Spend(context.Background(), now)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if spend.TodayUSD != 1.25 || spend.TodayCalls != 1 {
		t.Fatalf("unexpected today totals: %+v", spend)
	}
	if spend.MonthUSD != 3.75 || spend.MonthCalls != 2 || spend.MonthTokens != 150 {
		t.Fatalf("unexpected month totals: %+v", spend)
	}
}

func TestTrackerSpend_MissingFile(t *testing.T) {
	t.Parallel()

	spend, err := New(filepath.Join(t.TempDir(), "missing.jsonl")).Spend(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if spend != (Spend{}) {
		t.Fatalf("expected zero spend, got %+v", spend)
	}
}

type stubProvider struct {
	resp *llm.ChatResponse
	err  error
}

func (p stubProvider) Chat(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return p.resp, p.err
}

type stubModerator struct {
	stubProvider
}

func (stubModerator) Moderate(context.Context, string) (*llm.Moderation, error) {
	return &llm.Moderation{Flagged: true}, nil
}

func TestMeterRecordsSuccessfulCalls(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "usage.jsonl")
	tracker := New(path)
	p := Meter(stubProvider{resp: &llm.ChatResponse{
		Content: "ok",
		Usage:   llm.TokenUsage{InputTokens: 1000, OutputTokens: 500},
	}}, tracker, "openai", "gpt-4o-mini")

	if _, err := p.Chat(context.Background(), llm.ChatRequest{}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read usage: %v", err)
	}
	line := string(raw)
	if !strings.Contains(line, `"total_tokens":1500`) || !strings.Contains(line, `"model":"gpt-4o-mini"`) {
		t.Fatalf("unexpected usage record %q", line)
	}

	failing := Meter(stubProvider{err: errors.New("boom")}, tracker, "openai", "gpt-4o-mini")
	if _, err := failing.Chat(context.Background(), llm.ChatRequest{}); err == nil {
		t.Fatalf("expected provider error to pass through")
	}
	after, _ := os.ReadFile(path)
	if strings.Count(string(after), "\n") != 1 {
		t.Fatalf("failed calls must not be recorded, got %q", after)
	}
}

func TestMeterKeepsModeration(t *testing.T) {
	t.Parallel()

	tracker := New(filepath.Join(t.TempDir(), "usage.jsonl"))
	if _, ok := Meter(stubProvider{}, tracker, "anthropic", "claude").(llm.Moderator); ok {
		t.Fatalf("plain provider must not gain moderation")
	}
	m, ok := Meter(stubModerator{}, tracker, "openai", "gpt-4o-mini").(llm.Moderator)
	if !ok {
		t.Fatalf("expected moderator to be preserved")
	}
	verdict, err := m.Moderate(context.Background(), "x")
	if err != nil || !verdict.Flagged {
		t.Fatalf("unexpected moderation result %+v, %v", verdict, err)
	}
	if Meter(nil, tracker, "openai", "m") != nil {
		t.Fatalf("nil provider must stay nil")
	}
}
