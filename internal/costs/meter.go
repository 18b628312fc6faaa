package costs

import (
	"context"
	"time"

	"github.com/almeera/ultah/internal/llm"
	"github.com/almeera/ultah/internal/logging"
)

// Meter wraps provider so every successful chat call is appended to tracker.
// The wrapper keeps moderation support when provider has it.
func Meter(provider llm.Provider, tracker *Tracker, providerName, model string) llm.Provider {
	if provider == nil || tracker == nil {
		return provider
	}
	m := &meteredProvider{next: provider, tracker: tracker, provider: providerName, model: model}
	if mod, ok := provider.(llm.Moderator); ok {
		return &meteredModerator{meteredProvider: m, moderator: mod}
	}
	return m
}

type meteredProvider struct {
	next     llm.Provider
	tracker  *Tracker
	provider string
	model    string
}

func (p *meteredProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.next.Chat(ctx, req)
	if err != nil || resp == nil {
		return resp, err
	}

	usage := resp.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	cost, _ := EstimateUSD(p.provider, p.model, usage.InputTokens, usage.OutputTokens)
	rec := Record{
		Timestamp:    time.Now(),
		Provider:     p.provider,
		Model:        p.model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		CostUSD:      cost,
	}
	// A usage log failure never fails the call.
	if appendErr := p.tracker.Append(context.WithoutCancel(ctx), rec); appendErr != nil {
		logging.Logger().Warn("record llm usage failed", "err", appendErr)
	}
	return resp, nil
}

type meteredModerator struct {
	*meteredProvider
	moderator llm.Moderator
}

var _ llm.Moderator = (*meteredModerator)(nil)

func (p *meteredModerator) Moderate(ctx context.Context, text string) (*llm.Moderation, error) {
	return p.moderator.Moderate(ctx, text)
}
