package channels

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/almeera/ultah/internal/logging"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const telegramMaxMessageRunes = 4096

type telegramSendMessageFunc func(context.Context, *bot.SendMessageParams) (*models.Message, error)

// Telegram posts staff notifications to a Telegram chat.
type Telegram struct {
	chatID      int64
	sendMessage telegramSendMessageFunc
}

var _ Sender = (*Telegram)(nil)

// NewTelegram creates a notifier for the bot token, posting to chatID by
// default. No network call is made until the first send.
func NewTelegram(token, chatID string) (*Telegram, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram token is required")
	}
	id, err := parseChatID(chatID)
	if err != nil {
		return nil, err
	}
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{chatID: id, sendMessage: b.SendMessage}, nil
}

// Send implements Sender. An empty to uses the default chat.
func (t *Telegram) Send(ctx context.Context, to, text string) Delivery {
	chatID := t.chatID
	if strings.TrimSpace(to) != "" {
		id, err := parseChatID(to)
		if err != nil {
			return failed(err.Error())
		}
		chatID = id
	}
	if err := t.sendChatMessage(ctx, chatID, text); err != nil {
		return failed(err.Error())
	}
	return Delivery{Status: StatusSent, Response: "ok"}
}

// sendChatMessage sends markdown as Telegram HTML, resending as plain text
// when formatting fails locally or is rejected by the API.
func (t *Telegram) sendChatMessage(ctx context.Context, chatID int64, text string) error {
	if t == nil || t.sendMessage == nil {
		return errors.New("telegram bot is not connected")
	}
	text = truncateRunes(text, telegramMaxMessageRunes)

	if formatted, ok := formatTelegram(text); ok {
		_, err := t.sendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      truncateRunes(formatted, telegramMaxMessageRunes),
			ParseMode: models.ParseModeHTML,
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		logging.Logger().Warn("telegram html send failed; retrying as plain text", "err", err)
	}

	_, err := t.sendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func parseChatID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q", raw)
	}
	return id, nil
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
