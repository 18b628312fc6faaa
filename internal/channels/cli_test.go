package channels

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/runtime"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testHandler struct {
	mu       sync.Mutex
	messages []*runtime.Message
	response string
	err      error
}

func (h *testHandler) HandleMessage(ctx context.Context, w runtime.ResponseWriter, msg *runtime.Message) error {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	return w.WriteMessage(ctx, h.response)
}

func (h *testHandler) texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.messages))
	for _, m := range h.messages {
		out = append(out, m.Text)
	}
	return out
}

type recordingResetter struct {
	conversations []string
}

func (r *recordingResetter) Reset(conversation string) {
	r.conversations = append(r.conversations, conversation)
}

func TestCLIListenerListenDispatchesMessages(t *testing.T) {
	out := &syncBuffer{}
	listener := NewCLI(strings.NewReader("halo\n  \nada promo?\n"), out)

	handler := &testHandler{response: "ada dong"}
	if err := listener.Listen(context.Background(), handler); err != nil {
		t.Fatalf("listen: %v", err)
	}

	got := handler.texts()
	if len(got) != 2 || got[0] != "halo" || got[1] != "ada promo?" {
		t.Fatalf("expected two dispatched messages, got %#v", got)
	}
	if handler.messages[0].From != CLIConversation {
		t.Fatalf("expected cli conversation, got %q", handler.messages[0].From)
	}
	if !strings.Contains(out.String(), "almeera> ada dong") {
		t.Fatalf("expected assistant output, got %q", out.String())
	}
}

func TestCLIListenerListenExitsOnExitCommands(t *testing.T) {
	for _, cmd := range []string{"/exit", "exit", "/quit", "QUIT"} {
		listener := NewCLI(strings.NewReader(cmd+"\nhalo\n"), &syncBuffer{})
		handler := &testHandler{response: "unused"}

		if err := listener.Listen(context.Background(), handler); err != nil {
			t.Fatalf("listen %q: %v", cmd, err)
		}
		if got := handler.texts(); len(got) != 0 {
			t.Fatalf("%q: expected no handler calls, got %#v", cmd, got)
		}
	}
}

func TestCLIListenerListenReset(t *testing.T) {
	out := &syncBuffer{}
	listener := NewCLI(strings.NewReader("halo\n/reset\n"), out)
	resetter := &recordingResetter{}
	listener.Resetter = resetter

	if err := listener.Listen(context.Background(), &testHandler{response: "hai"}); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if len(resetter.conversations) != 1 || resetter.conversations[0] != CLIConversation {
		t.Fatalf("expected one cli reset, got %#v", resetter.conversations)
	}
	if !strings.Contains(out.String(), "Percakapan dimulai ulang.") {
		t.Fatalf("expected reset notice, got %q", out.String())
	}
}

func TestCLIListenerListenWritesHandlerError(t *testing.T) {
	out := &syncBuffer{}
	listener := NewCLI(strings.NewReader("halo\n"), out)

	if err := listener.Listen(context.Background(), &testHandler{err: errors.New("fatal")}); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if !strings.Contains(out.String(), "almeera> Maaf Kak, ada kendala") {
		t.Fatalf("expected error output, got %q", out.String())
	}
}

func TestCLIListenerListenRequiresHandler(t *testing.T) {
	if err := NewCLI(strings.NewReader(""), &syncBuffer{}).Listen(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestCLIListenerListenHelp(t *testing.T) {
	out := &syncBuffer{}
	handler := &testHandler{response: "unused"}
	if err := NewCLI(strings.NewReader("/HELP\n"), out).Listen(context.Background(), handler); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if len(handler.texts()) != 0 {
		t.Fatalf("help must not reach the handler")
	}
	if !strings.Contains(out.String(), "almeera> Perintah: /reset") {
		t.Fatalf("expected help text, got %q", out.String())
	}
}
