package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/almeera/ultah/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := config.HomeDir()
			if err != nil {
				return err
			}
			path := (&config.Config{HomeDir: home}).ConfigPath()
			source := path
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				source = path + " (missing; defaults only)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# config file: %s\n", source)
			return config.Write(out)
		},
	}
}
