package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/webhook"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the WhatsApp webhook and admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			trigger, err := newPassTrigger(cmd, cfg)
			if err != nil {
				return err
			}
			server, err := newWebhookServer(cmd, cfg, trigger)
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "starting server on %s\n", cfg.Server.Addr()); err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(runCtx)
		},
	}
}

func newWebhookServer(cmd *cobra.Command, cfg *config.Config, trigger *passTrigger) (*webhook.Server, error) {
	assistant, err := newAssistant(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return webhook.NewServer(
		webhook.Options{
			Addr:        cfg.Server.Addr(),
			VerifyToken: cfg.WhatsApp.VerifyToken,
			AdminToken:  cfg.Server.AdminToken,
			Debug:       cfg.Server.Debug,
		},
		assistant,
		channels.NewWhatsApp(cfg.WhatsApp),
		trigger.runNow,
	), nil
}
