package channels

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func TestFormatTelegramMappings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bold", input: "**Birthday Treat**", expected: "<b>Birthday Treat</b>"},
		{name: "italic", input: "*spesial*", expected: "<i>spesial</i>"},
		{name: "strikethrough", input: "~~Rp 200.000~~", expected: "<s>Rp 200.000</s>"},
		{name: "heading", input: "# Ulang tahun hari ini", expected: "<b>Ulang tahun hari ini</b>\n"},
		{name: "inline code", input: "`0812`", expected: "<code>0812</code>"},
		{
			name:     "fenced code",
			input:    "```\nSent=\"True\"\n```",
			expected: "<pre><code>Sent=&#34;True&#34;\n</code></pre>",
		},
		{name: "link", input: "[Almeera](https://example.com)", expected: `<a href="https://example.com">Almeera</a>`},
		{name: "bullet list", input: "- Dewi\n- Rina", expected: "- Dewi\n- Rina\n"},
		{name: "ordered list", input: "1. Dewi\n2. Rina", expected: "1. Dewi\n2. Rina\n"},
		{name: "paragraphs", input: "satu\n\ndua", expected: "satu\n\ndua"},
		{name: "soft break", input: "satu\ndua", expected: "satu\ndua"},
		{name: "escapes", input: "A & B", expected: "A &amp; B"},
		{name: "plain passthrough", input: "halo semua", expected: "halo semua"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := formatTelegram(tt.input)
			if !ok {
				t.Fatalf("expected format success for input %q", tt.input)
			}
			if got != tt.expected {
				t.Fatalf("unexpected format output\ninput: %q\ngot: %q\nexpected: %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatTelegram_OmitsImagesAndRawHTML(t *testing.T) {
	got, ok := formatTelegram(`<b>raw</b> ![img](https://example.com/a.png)`)
	if !ok {
		t.Fatal("expected format success")
	}
	if strings.Contains(got, "<b>") || strings.Contains(got, "<img") {
		t.Fatalf("expected raw html and images omitted, got %q", got)
	}
}

func TestRenderTelegram_NilParser(t *testing.T) {
	formatted, err := renderTelegram("hello", nil)
	if err == nil || formatted != "" {
		t.Fatalf("expected render error for nil parser, got %q, %v", formatted, err)
	}
}

func newTestTelegram(send telegramSendMessageFunc) *Telegram {
	return &Telegram{chatID: -100200, sendMessage: send}
}

func TestTelegramDigest_UsesHTMLParseMode(t *testing.T) {
	var sent []*bot.SendMessageParams
	tg := newTestTelegram(func(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
		sent = append(sent, params)
		return &models.Message{ID: 1}, nil
	})

	if d := tg.Send(context.Background(), "", "**3** ulang tahun hari ini"); !d.OK() {
		t.Fatalf("send digest: %+v", d)
	}
	if len(sent) != 1 {
		t.Fatalf("expected one send, got %d", len(sent))
	}
	if sent[0].ParseMode != models.ParseModeHTML {
		t.Fatalf("expected ParseModeHTML, got %q", sent[0].ParseMode)
	}
	if sent[0].Text != "<b>3</b> ulang tahun hari ini" {
		t.Fatalf("unexpected formatted text: %q", sent[0].Text)
	}
	if sent[0].ChatID != int64(-100200) {
		t.Fatalf("unexpected chat id %#v", sent[0].ChatID)
	}
}

func TestTelegramDigest_FormatterFailureFallsBackToPlain(t *testing.T) {
	original := telegramMarkdown
	telegramMarkdown = nil
	defer func() {
		telegramMarkdown = original
	}()

	var sent *bot.SendMessageParams
	tg := newTestTelegram(func(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
		sent = params
		return &models.Message{ID: 1}, nil
	})
	if d := tg.Send(context.Background(), "", "**ok**"); !d.OK() {
		t.Fatalf("send digest: %+v", d)
	}
	if sent.ParseMode != "" || sent.Text != "**ok**" {
		t.Fatalf("expected plain fallback, got %+v", sent)
	}
}

func TestTelegramDigest_RejectedHTMLRetriesPlain(t *testing.T) {
	var modes []models.ParseMode
	tg := newTestTelegram(func(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
		modes = append(modes, params.ParseMode)
		if params.ParseMode == models.ParseModeHTML {
			return nil, errors.New("bad request: can't parse entities")
		}
		return &models.Message{ID: 1}, nil
	})
	if d := tg.Send(context.Background(), "", "**ok**"); !d.OK() {
		t.Fatalf("send digest: %+v", d)
	}
	if len(modes) != 2 || modes[1] != "" {
		t.Fatalf("expected html attempt then plain retry, got %#v", modes)
	}
}

func TestTelegramSend(t *testing.T) {
	var chats []any
	tg := newTestTelegram(func(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
		chats = append(chats, params.ChatID)
		return &models.Message{ID: 1}, nil
	})

	if d := tg.Send(context.Background(), "", "x"); !d.OK() {
		t.Fatalf("expected sent delivery, got %+v", d)
	}
	if d := tg.Send(context.Background(), "12345", "x"); !d.OK() {
		t.Fatalf("expected sent delivery, got %+v", d)
	}
	if d := tg.Send(context.Background(), "@staff", "x"); d.Status != StatusFailed {
		t.Fatalf("expected failure for non-numeric chat, got %+v", d)
	}
	if len(chats) != 2 || chats[0] != int64(-100200) || chats[1] != int64(12345) {
		t.Fatalf("unexpected chats %#v", chats)
	}
}

func TestTelegramSend_ErrorIsFailedDelivery(t *testing.T) {
	tg := newTestTelegram(func(context.Context, *bot.SendMessageParams) (*models.Message, error) {
		return nil, errors.New("forbidden: bot was kicked")
	})
	d := tg.Send(context.Background(), "", "x")
	if d.Status != StatusFailed || !strings.Contains(d.Response, "bot was kicked") {
		t.Fatalf("expected failed delivery, got %+v", d)
	}
}

func TestNewTelegram_Validation(t *testing.T) {
	if _, err := NewTelegram("", "1"); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if _, err := NewTelegram("123:abc", "staff"); err == nil {
		t.Fatalf("expected error for invalid chat id")
	}
	tg, err := NewTelegram("123:abc", "-100200")
	if err != nil {
		t.Fatalf("new telegram: %v", err)
	}
	if tg.chatID != -100200 || tg.sendMessage == nil {
		t.Fatalf("unexpected notifier %+v", tg)
	}
}
