// Package channels delivers outgoing messages (WhatsApp, Telegram) and reads
// interactive input from the terminal.
package channels

import (
	"context"
	"strings"
)

// Status is the outcome of one delivery attempt.
type Status string

const (
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusSimulated Status = "simulated"
)

// SimulatedPrefix starts the response of every simulated delivery.
const SimulatedPrefix = "SIMULATED"

// Delivery reports what happened to one message. Senders never return an
// error; failures are carried in Status and Response.
type Delivery struct {
	Status   Status
	Response string
}

// OK reports whether the message was accepted by the remote API.
func (d Delivery) OK() bool {
	return d.Status == StatusSent
}

// ReportValue renders the delivery for the "Sent" report column.
func (d Delivery) ReportValue() string {
	switch {
	case d.Status == StatusSimulated || strings.HasPrefix(d.Response, SimulatedPrefix):
		return SimulatedPrefix
	case d.Status == StatusSent:
		return "True"
	default:
		return "False"
	}
}

// Sender delivers text to a recipient.
type Sender interface {
	Send(ctx context.Context, to, text string) Delivery
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, text string) Delivery

func (f SenderFunc) Send(ctx context.Context, to, text string) Delivery {
	return f(ctx, to, text)
}

func failed(response string) Delivery {
	return Delivery{Status: StatusFailed, Response: response}
}
