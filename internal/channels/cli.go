package channels

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/almeera/ultah/internal/runtime"
	"github.com/chzyer/readline"
	"golang.org/x/term"
)

const (
	chatPrompt = "kamu> "
	// CLIConversation is the conversation key used for terminal chat.
	CLIConversation = "cli"

	cliQueueSize    = 20
	cliDrainTimeout = 5 * time.Second
	cliHistoryLimit = 200
)

var _ runtime.Listener = (*CLIListener)(nil)

// Resetter forgets conversation state on /reset.
type Resetter interface {
	Reset(conversation string)
}

// CLIWriter prints assistant replies with the salon persona prefix.
type CLIWriter struct {
	out io.Writer
}

func (w *CLIWriter) WriteMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintf(w.out, "almeera> %s\n\n", text)
	return err
}

// CLIListener is the terminal front end of the assistant. Lines are queued
// on a dispatcher so replies print in input order; slash commands are
// handled locally.
type CLIListener struct {
	in  io.Reader
	out io.Writer

	// Resetter, when set, handles /reset.
	Resetter Resetter
	// HistoryPath enables readline history when stdin is a terminal.
	HistoryPath string
}

func NewCLI(in io.Reader, out io.Writer) *CLIListener {
	return &CLIListener{in: in, out: out}
}

type chatAction int

const (
	actionNone chatAction = iota
	actionReset
	actionHelp
	actionExit
)

var chatCommands = map[string]chatAction{
	"/reset": actionReset,
	"/help":  actionHelp,
	"/exit":  actionExit,
	"exit":   actionExit,
	"/quit":  actionExit,
	"quit":   actionExit,
}

const chatHelp = "Perintah: /reset mulai ulang percakapan, /exit keluar. Selain itu, ketik pertanyaan seputar treatment dan harga."

// Listen reads lines until EOF, an exit command, or ctx cancellation.
func (c *CLIListener) Listen(ctx context.Context, handler runtime.Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	src := c.openSource()
	defer src.Close()

	if _, err := fmt.Fprintln(c.out, "Mode chat. Ketik /reset untuk mulai ulang, /exit untuk keluar."); err != nil {
		return err
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	dispatcher := runtime.NewDispatcher(handler, runtime.DispatcherOptions{QueueSize: cliQueueSize})
	if err := dispatcher.Start(dispatchCtx); err != nil {
		cancel()
		return err
	}
	defer func() {
		cancel()
		dispatcher.Wait()
	}()

	writer := &CLIWriter{out: c.out}
	lines := readLines(dispatchCtx, src)
	for {
		var ev lineEvent
		var ok bool
		select {
		case <-ctx.Done():
			dispatcher.Stop()
			return nil
		case ev, ok = <-lines:
		}

		switch {
		case !ok, errors.Is(ev.err, io.EOF):
			drain(dispatcher)
			return nil
		case errors.Is(ev.err, context.Canceled):
			dispatcher.Stop()
			return nil
		case ev.err != nil:
			return ev.err
		}

		line := strings.TrimSpace(ev.line)
		if line == "" {
			continue
		}

		switch chatCommands[strings.ToLower(line)] {
		case actionExit:
			drain(dispatcher)
			return nil
		case actionReset:
			drain(dispatcher)
			if c.Resetter != nil {
				c.Resetter.Reset(CLIConversation)
			}
			_ = writer.WriteMessage(ctx, "Percakapan dimulai ulang.")
			continue
		case actionHelp:
			_ = writer.WriteMessage(ctx, chatHelp)
			continue
		}

		msg := &runtime.Message{From: CLIConversation, Text: line, ReceivedAt: time.Now()}
		if err := dispatcher.Enqueue(ctx, msg, writer); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// drain waits for queued lines to be answered, stopping the dispatcher if
// that takes too long.
func drain(dispatcher *runtime.Dispatcher) {
	ctx, cancel := context.WithTimeout(context.Background(), cliDrainTimeout)
	defer cancel()
	if err := dispatcher.WaitUntilIdle(ctx); err != nil {
		dispatcher.Stop()
	}
}

type lineEvent struct {
	line string
	err  error
}

func readLines(ctx context.Context, src lineSource) <-chan lineEvent {
	ch := make(chan lineEvent)
	go func() {
		defer close(ch)
		for ctx.Err() == nil {
			line, err := src.ReadLine()
			select {
			case ch <- lineEvent{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

type lineSource interface {
	ReadLine() (string, error)
	Close() error
}

// openSource prefers readline on an interactive terminal and falls back to
// plain buffered reads for pipes and tests.
func (c *CLIListener) openSource() lineSource {
	if rl, err := c.newReadline(); err == nil {
		return readlineSource{rl}
	}
	return &plainSource{r: bufio.NewReader(c.in), out: c.out}
}

func (c *CLIListener) newReadline() (*readline.Instance, error) {
	inFile, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return nil, errors.New("stdin is not a terminal")
	}
	outFile, ok := c.out.(*os.File)
	if !ok || !term.IsTerminal(int(outFile.Fd())) {
		return nil, errors.New("stdout is not a terminal")
	}
	return readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     c.HistoryPath,
		HistoryLimit:    cliHistoryLimit,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           inFile,
		Stdout:          outFile,
		Stderr:          outFile,
	})
}

type readlineSource struct {
	rl *readline.Instance
}

func (s readlineSource) ReadLine() (string, error) {
	line, err := s.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (s readlineSource) Close() error { return s.rl.Close() }

type plainSource struct {
	r   *bufio.Reader
	out io.Writer
}

func (s *plainSource) ReadLine() (string, error) {
	if _, err := fmt.Fprint(s.out, chatPrompt); err != nil {
		return "", err
	}
	line, err := s.r.ReadString('\n')
	if err != nil && line != "" {
		return line, nil
	}
	return line, err
}

func (s *plainSource) Close() error { return nil }
