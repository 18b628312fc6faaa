package cli

import (
	"fmt"

	"github.com/almeera/ultah/internal/bootstrap"
	"github.com/almeera/ultah/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the ultah home directory with a starter config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			created, err := bootstrap.Initialize(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintf(out, "Nothing to do; %s is already set up.\n", cfg.HomeDir)
				return nil
			}
			for _, path := range created {
				fmt.Fprintf(out, "created %s\n", path)
			}
			fmt.Fprintf(out, "Edit config file: %s\n", cfg.ConfigPath())
			return nil
		},
	}
}
