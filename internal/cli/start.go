package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/store"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the daily birthday schedule (and the webhook server when enabled)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logging.Logger().Info(
				"starting ultah",
				"cron", cfg.Schedule.Cron,
				"timezone", cfg.Schedule.Timezone,
				"provider", cfg.LLM.Provider,
				"model", cfg.LLM.Model,
				"server", cfg.Server.Enabled,
				"home", cfg.HomeDir,
			)

			pidFilePath := cfg.PIDPath()
			if err := store.WriteFile(pidFilePath, []byte(fmt.Sprintf("%d\n", os.Getpid()))); err != nil {
				return fmt.Errorf("write pid file %q: %w", pidFilePath, err)
			}
			defer func() {
				os.Remove(pidFilePath)
			}()

			trigger, err := newPassTrigger(cmd, cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := trigger.service.Start(runCtx); err != nil {
				return err
			}

			serverErr := make(chan error, 1)
			if cfg.Server.Enabled {
				server, err := newWebhookServer(cmd, cfg, trigger)
				if err != nil {
					return err
				}
				go func() { serverErr <- server.Run(runCtx) }()
			}

			var runErr error
			select {
			case <-runCtx.Done():
			case runErr = <-serverErr:
				stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := trigger.service.Stop(shutdownCtx); err != nil {
				return err
			}
			if cfg.Server.Enabled && runErr == nil {
				runErr = <-serverErr
			}
			logging.Logger().Info("ultah stopped")
			return runErr
		},
	}
}
