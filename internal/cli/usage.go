package cli

import (
	"fmt"
	"time"

	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/costs"
	"github.com/spf13/cobra"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show LLM token usage and estimated spend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			spend, err := costs.New(cfg.UsagePath()).Spend(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Today: $%.4f (%d calls)\n", spend.TodayUSD, spend.TodayCalls)
			fmt.Fprintf(out, "Month: $%.4f (%d calls, %d tokens)\n", spend.MonthUSD, spend.MonthCalls, spend.MonthTokens)
			return nil
		},
	}
}
