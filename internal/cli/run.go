package cli

import (
	"github.com/almeera/ultah/internal/birthday"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		date     string
		noReport bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send today's birthday greetings and write the delivery report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now, err := parseDateFlag(date, cfg)
			if err != nil {
				return err
			}
			runner, err := newRunner(cmd, cfg, birthday.ModeSend, now)
			if err != nil {
				return err
			}
			runner.WriteReport = !noReport
			_, err = runner.Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Treat this day (YYYY-MM-DD) as today")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Skip writing the CSV delivery report")
	return cmd
}
