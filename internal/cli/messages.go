package cli

import (
	"github.com/almeera/ultah/internal/birthday"
	"github.com/spf13/cobra"
)

func newMessagesCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"preview"},
		Short:   "Generate and print today's birthday greetings without sending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now, err := parseDateFlag(date, cfg)
			if err != nil {
				return err
			}
			runner, err := newRunner(cmd, cfg, birthday.ModePreview, now)
			if err != nil {
				return err
			}
			_, err = runner.Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Treat this day (YYYY-MM-DD) as today")
	return cmd
}
