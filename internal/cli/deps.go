package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/almeera/ultah/internal/agent"
	"github.com/almeera/ultah/internal/birthday"
	"github.com/almeera/ultah/internal/catalog"
	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/costs"
	"github.com/almeera/ultah/internal/llm"
	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/scheduler"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	providerFactory = llm.NewProviderFromConfig
	notifierFactory = func(cfg config.TelegramConfig) (channels.Sender, error) {
		return channels.NewTelegram(cfg.Token, cfg.NotifyChatID)
	}
)

// loadConfig loads and validates config, logging non-fatal warnings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	report, err := config.ValidateStartup(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range report.Warnings {
		logging.Logger().Warn(w)
	}
	return cfg, nil
}

// newProvider returns a nil provider, not an error, when no API key is set.
func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	p, err := providerFactory(ctx, cfg.LLM)
	if errors.Is(err, llm.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create llm provider: %w", err)
	}
	return costs.Meter(p, costs.New(cfg.UsagePath()), cfg.LLM.Provider, cfg.LLM.Model), nil
}

func systemPrompt(cfg *config.Config) (string, error) {
	cat, err := catalog.Load(cfg.PricesPath())
	if err != nil {
		return "", err
	}
	return agent.SystemPrompt(cat.PromptText()), nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (*agent.Generator, error) {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	prompt, err := systemPrompt(cfg)
	if err != nil {
		return nil, err
	}
	temperature := cfg.LLM.Temperature
	return &agent.Generator{
		Provider:     provider,
		SystemPrompt: prompt,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  &temperature,
		Timeout:      cfg.LLM.RequestTimeout,
	}, nil
}

func newAssistant(ctx context.Context, cfg *config.Config) (*agent.Assistant, error) {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	prompt, err := systemPrompt(cfg)
	if err != nil {
		return nil, err
	}
	temperature := cfg.LLM.Temperature
	return agent.NewAssistant(provider, agent.AssistantOptions{
		SystemPrompt: prompt,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  &temperature,
		HistoryLimit: cfg.Messages.HistoryLimit,
		Moderation:   cfg.LLM.Moderation,
	}), nil
}

// newRunner builds a birthday pass. now overrides the clock when set.
func newRunner(cmd *cobra.Command, cfg *config.Config, mode birthday.Mode, now func() time.Time) (*birthday.Runner, error) {
	gen, err := newGenerator(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if now == nil {
		loc, err := cfg.Schedule.Location()
		if err != nil {
			return nil, err
		}
		now = func() time.Time { return time.Now().In(loc) }
	}

	runner := &birthday.Runner{
		Options:   birthday.OptionsFromConfig(cfg, mode),
		Generator: gen,
		Out:       cmd.OutOrStdout(),
		Now:       now,
	}
	if mode != birthday.ModeSend {
		return runner, nil
	}

	runner.Sender = channels.NewWhatsApp(cfg.WhatsApp)
	runner.Progress = term.IsTerminal(int(os.Stderr.Fd()))
	if cfg.Telegram.Enabled {
		notifier, err := notifierFactory(cfg.Telegram)
		if err != nil {
			return nil, err
		}
		runner.Notifier = notifier
	}
	return runner, nil
}

// parseDateFlag turns --date (YYYY-MM-DD) into a clock pinned to that day in
// the schedule timezone. An empty value gives the wall clock in that zone.
func parseDateFlag(raw string, cfg *config.Config) (func() time.Time, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return func() time.Time { return time.Now().In(loc) }, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("parse --date %q: expected YYYY-MM-DD", raw)
	}
	return func() time.Time {
		now := time.Now().In(loc)
		return time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, loc)
	}, nil
}

// passTrigger runs the send pass on a schedule and on demand, never
// overlapping.
type passTrigger struct {
	runner  *birthday.Runner
	service *scheduler.Service

	mu   sync.Mutex
	last *birthday.Summary
}

func newPassTrigger(cmd *cobra.Command, cfg *config.Config) (*passTrigger, error) {
	runner, err := newRunner(cmd, cfg, birthday.ModeSend, nil)
	if err != nil {
		return nil, err
	}
	// Long-running processes write logs, not progress bars.
	runner.Progress = false

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	t := &passTrigger{runner: runner}
	t.service, err = scheduler.NewService(cfg.Schedule.Cron, loc, t.job)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// passTimeout bounds one send pass once it is detached from its caller.
const passTimeout = 30 * time.Minute

// job runs the pass detached from ctx so a dropped HTTP request or a
// shutdown signal does not stop it between deliveries.
func (t *passTrigger) job(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), passTimeout)
	defer cancel()
	summary, err := t.runner.Run(runCtx)
	t.mu.Lock()
	t.last = summary
	t.mu.Unlock()
	return err
}

// runNow runs one pass immediately and returns its summary.
func (t *passTrigger) runNow(ctx context.Context) (*birthday.Summary, error) {
	if err := t.service.RunNow(ctx); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, nil
}
