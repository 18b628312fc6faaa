package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/runtime"
	"github.com/spf13/cobra"
)

const chatHistoryFile = ".chat_history"

func newChatCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant (or send one message with -p)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			assistant, err := newAssistant(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if trimmed := strings.TrimSpace(prompt); trimmed != "" {
				writer := &singleShotWriter{out: cmd.OutOrStdout()}
				return assistant.HandleMessage(cmd.Context(), writer, &runtime.Message{
					From: channels.CLIConversation,
					Text: trimmed,
				})
			}

			listener := channels.NewCLI(cmd.InOrStdin(), cmd.OutOrStdout())
			listener.Resetter = assistant
			listener.HistoryPath = filepath.Join(cfg.HomeDir, chatHistoryFile)
			return listener.Listen(cmd.Context(), assistant)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt message")
	return cmd
}

type singleShotWriter struct {
	out io.Writer
}

// WriteMessage writes one response message for one-shot prompt mode.
func (w *singleShotWriter) WriteMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintln(w.out, text)
	return err
}
