// Package costs records LLM token usage and estimated spend in a JSONL log.
package costs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/almeera/ultah/internal/store"
)

// Record is one persisted usage entry.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	CostUSD      float64   `json:"cost_usd"`
}

// Spend holds aggregated usage for the current day and month.
type Spend struct {
	TodayUSD    float64
	MonthUSD    float64
	TodayCalls  int
	MonthCalls  int
	MonthTokens int
}

// Tracker appends usage records and computes period totals.
type Tracker struct {
	path string
}

// New returns a Tracker for the usage JSONL path.
func New(path string) *Tracker {
	return &Tracker{path: path}
}

// Append writes one usage record as a JSON line.
func (t *Tracker) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.path == "" {
		return errors.New("usage path is required")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}
	if err := store.AppendFile(t.path, append(encoded, '\n')); err != nil {
		return fmt.Errorf("append usage record: %w", err)
	}
	return nil
}

// Spend totals the current month's records in now's location. Lines that
// do not decode are skipped.
func (t *Tracker) Spend(ctx context.Context, now time.Time) (Spend, error) {
	if now.IsZero() {
		now = time.Now()
	}
	year, month, day := now.Date()
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	var totals Spend
	err := t.each(ctx, func(rec Record) {
		if rec.Timestamp.Before(monthStart) || !rec.Timestamp.Before(monthStart.AddDate(0, 1, 0)) {
			return
		}
		totals.MonthUSD += rec.CostUSD
		totals.MonthCalls++
		totals.MonthTokens += rec.TotalTokens
		if !rec.Timestamp.Before(dayStart) && rec.Timestamp.Before(dayStart.AddDate(0, 0, 1)) {
			totals.TodayUSD += rec.CostUSD
			totals.TodayCalls++
		}
	})
	if err != nil {
		return Spend{}, err
	}
	return totals, nil
}

func (t *Tracker) each(ctx context.Context, fn func(Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.path == "" {
		return errors.New("usage path is required")
	}

	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open usage file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rec Record
		if json.Unmarshal(scanner.Bytes(), &rec) != nil {
			continue
		}
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan usage file: %w", err)
	}
	return nil
}
