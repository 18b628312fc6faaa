package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/runtime"
)

// ErrMissingRecipient is reported for empty or placeholder phone numbers.
var ErrMissingRecipient = errors.New("missing recipient")

const maxResponseBody = 64 << 10

// WhatsApp sends text messages through the WhatsApp Cloud API. Without a
// token or phone number ID every send is simulated.
type WhatsApp struct {
	token         string
	phoneNumberID string
	endpoint      string
	countryCode   string
	httpClient    *http.Client
}

var _ Sender = (*WhatsApp)(nil)

// NewWhatsApp builds a sender from the whatsapp config section.
func NewWhatsApp(cfg config.WhatsAppConfig) *WhatsApp {
	return newWhatsApp(cfg, &http.Client{Timeout: cfg.RequestTimeout})
}

func newWhatsApp(cfg config.WhatsAppConfig, httpClient *http.Client) *WhatsApp {
	w := &WhatsApp{
		token:         strings.TrimSpace(cfg.Token),
		phoneNumberID: strings.TrimSpace(cfg.PhoneNumberID),
		countryCode:   strings.TrimSpace(cfg.DefaultCountryCode),
		httpClient:    httpClient,
	}
	if !cfg.Simulated() {
		w.endpoint = fmt.Sprintf("%s/%s/%s/messages",
			strings.TrimRight(cfg.BaseURL, "/"), strings.Trim(cfg.APIVersion, "/"), w.phoneNumberID)
	}
	return w
}

// Simulated reports whether live credentials are missing.
func (w *WhatsApp) Simulated() bool {
	return w.endpoint == ""
}

// Send delivers text to the phone number to.
func (w *WhatsApp) Send(ctx context.Context, to, text string) Delivery {
	phone, err := NormalizePhone(to, w.countryCode)
	if err != nil {
		return failed(err.Error())
	}

	if w.Simulated() {
		logging.Logger().Info("simulated whatsapp send", "to", phone, "chars", len(text))
		return Delivery{
			Status:   StatusSimulated,
			Response: fmt.Sprintf("%s: no WhatsApp credentials configured; message to %s not sent", SimulatedPrefix, phone),
		}
	}

	body, err := json.Marshal(whatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               phone,
		Type:             "text",
		Text:             whatsAppText{Body: text},
	})
	if err != nil {
		return failed(fmt.Sprintf("marshal whatsapp request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("build whatsapp request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.token)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return failed(fmt.Sprintf("whatsapp request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return failed(fmt.Sprintf("read whatsapp response: %v", err))
	}
	response := strings.TrimSpace(string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Logger().Warn("whatsapp send rejected", "to", phone, "status", resp.StatusCode)
		return failed(fmt.Sprintf("%s: %s", resp.Status, response))
	}
	return Delivery{Status: StatusSent, Response: response}
}

// Writer adapts the sender to a runtime.ResponseWriter addressed to one
// recipient. Failed deliveries become errors; simulated ones do not.
func (w *WhatsApp) Writer(to string) runtime.ResponseWriter {
	return runtime.WriterFunc(func(ctx context.Context, text string) error {
		d := w.Send(ctx, to, text)
		if d.Status == StatusFailed {
			return fmt.Errorf("send whatsapp reply: %s", d.Response)
		}
		return nil
	})
}

type whatsAppTextMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// NormalizePhone reduces a sheet phone cell to WhatsApp's digits-only
// international form. A leading 0 is replaced by countryCode.
func NormalizePhone(raw, countryCode string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return "", ErrMissingRecipient
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	if strings.HasPrefix(digits, "0") && countryCode != "" {
		digits = countryCode + strings.TrimLeft(digits, "0")
	}
	if len(digits) < 6 {
		return "", fmt.Errorf("phone number %q is too short", raw)
	}
	return digits, nil
}
