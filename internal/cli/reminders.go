package cli

import (
	"fmt"

	"github.com/almeera/ultah/internal/birthday"
	"github.com/almeera/ultah/internal/records"
	"github.com/spf13/cobra"
)

func newRemindersCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Flag today's birthdays and write the updated sheet snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now, err := parseDateFlag(date, cfg)
			if err != nil {
				return err
			}
			opts := birthday.OptionsFromConfig(cfg, birthday.ModePreview)

			rs, err := records.Load(opts.RecordsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rs) == 0 {
				fmt.Fprintf(out, "No data loaded; check data.records_path (%s).\n", opts.RecordsPath)
				return nil
			}

			updater := records.Updater{Fields: opts.Fields, Now: now}
			changed, err := updater.Update(rs, opts.SnapshotPath)
			if err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(out, "Updated %d rows (reminder flags).\n", changed)
			if opts.SnapshotPath != "" {
				fmt.Fprintf(out, "Snapshot: %s\n", opts.SnapshotPath)
			}

			targets := records.Birthdays(rs, opts.Fields)
			if len(targets) == 0 {
				fmt.Fprintln(out, "No birthdays today.")
				return nil
			}
			fmt.Fprintf(out, "Found %d birthdays today:\n", len(targets))
			for _, r := range targets {
				phone, ok := records.Lookup(r, opts.PhoneAliases)
				if !ok {
					phone = "-"
				}
				fmt.Fprintf(out, "- %s (%s)\n", records.FirstNonEmpty(r, opts.NameAliases, "Kak"), phone)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Treat this day (YYYY-MM-DD) as today")
	return cmd
}
