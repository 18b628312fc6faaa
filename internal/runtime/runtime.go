// Package runtime routes inbound chat messages from a channel transport to a
// Handler, one message at a time.
package runtime

import (
	"context"
	"time"
)

// Message is an inbound message delivered by a channel transport.
type Message struct {
	// ID is the transport message id, used to drop redeliveries. May be empty.
	ID string
	// From identifies the conversation, e.g. the sender's phone number.
	From       string
	Name       string
	Text       string
	ReceivedAt time.Time
}

// ResponseWriter sends handler responses back to the active channel transport.
type ResponseWriter interface {
	WriteMessage(ctx context.Context, text string) error
}

// Handler processes inbound messages and writes responses.
type Handler interface {
	HandleMessage(ctx context.Context, w ResponseWriter, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, w ResponseWriter, msg *Message) error

func (f HandlerFunc) HandleMessage(ctx context.Context, w ResponseWriter, msg *Message) error {
	return f(ctx, w, msg)
}

// Listener receives channel input and dispatches it to a Handler.
type Listener interface {
	Listen(ctx context.Context, handler Handler) error
}

// WriterFunc adapts a function to ResponseWriter.
type WriterFunc func(ctx context.Context, text string) error

func (f WriterFunc) WriteMessage(ctx context.Context, text string) error {
	return f(ctx, text)
}
