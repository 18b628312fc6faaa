package webhook

import (
	"strconv"
	"strings"
	"time"

	"github.com/almeera/ultah/internal/runtime"
)

// Payload is the WhatsApp Cloud API webhook notification body. Only the
// parts needed for text messages are decoded.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// TextMessages flattens the payload into runtime messages. Status updates
// and non-text messages are skipped.
func (p Payload) TextMessages() []*runtime.Message {
	var out []*runtime.Message
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.Text == nil || strings.TrimSpace(m.Text.Body) == "" || m.From == "" {
					continue
				}
				out = append(out, &runtime.Message{
					ID:         m.ID,
					From:       m.From,
					Name:       names[m.From],
					Text:       strings.TrimSpace(m.Text.Body),
					ReceivedAt: parseUnix(m.Timestamp),
				})
			}
		}
	}
	return out
}

func parseUnix(raw string) time.Time {
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(sec, 0)
}
