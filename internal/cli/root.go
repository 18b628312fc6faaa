// Package cli wires Cobra subcommands to application dependencies; it is a thin controller with no business logic.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "ultah",
		Short: "Birthday reminders and greetings for Almeera customers",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			} else {
				logging.SetLevel(slog.LevelInfo)
			}

			// A .env next to the working directory is optional.
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logging.Logger().Warn("load .env failed", "err", err)
			}

			switch cmd.Name() {
			case "config", "init", "version":
				return nil
			}

			home, err := config.HomeDir()
			if err != nil {
				return err
			}
			cfg := &config.Config{HomeDir: home}
			if _, err := os.Stat(cfg.ConfigPath()); errors.Is(err, os.ErrNotExist) {
				logging.Logger().Warn("no config file; using defaults. Run `ultah init` to create one", "path", cfg.ConfigPath())
			} else if err != nil {
				return fmt.Errorf("stat config file %q: %w", cfg.ConfigPath(), err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `ultah start` when no subcommand is provided.
			startCmd, _, err := cmd.Find([]string{"start"})
			if err != nil {
				return err
			}
			startCmd.SetContext(cmd.Context())
			return startCmd.RunE(startCmd, args)
		},
	}

	root.AddCommand(newInitCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newRemindersCmd())
	root.AddCommand(newMessagesCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newStartCmd())
	root.AddCommand(newUsageCmd())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")

	return root
}
