package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/almeera/ultah/internal/logging"
)

const (
	userVisibleHandlerError = "Maaf Kak, ada kendala saat memproses pesan. Silakan coba lagi nanti ya."
	defaultSeenIDs          = 256
)

// ErrDuplicate is returned by Enqueue for a message ID seen recently.
var ErrDuplicate = errors.New("duplicate message")

// DispatcherOptions tunes a Dispatcher.
type DispatcherOptions struct {
	QueueSize int
	// MessageTimeout bounds each HandleMessage call. Zero means unbounded.
	MessageTimeout time.Duration
	// SeenIDs is how many recent message IDs are remembered for dedupe.
	SeenIDs int
}

// Dispatcher runs queued messages one at a time, in arrival order, against a
// Handler. A customer who sends three lines in a row gets three answers in
// the same order.
type Dispatcher struct {
	handler Handler
	timeout time.Duration
	queue   chan queued
	done    chan struct{}
	recent  *recentIDs

	mu        sync.Mutex
	root      context.Context
	cancelRun context.CancelFunc
	// pending counts queued plus running messages; idle is closed whenever
	// it is zero.
	pending int
	idle    chan struct{}
}

type queued struct {
	msg    *Message
	writer ResponseWriter
}

func NewDispatcher(handler Handler, opts DispatcherOptions) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.SeenIDs <= 0 {
		opts.SeenIDs = defaultSeenIDs
	}
	idle := make(chan struct{})
	close(idle)
	return &Dispatcher{
		handler: handler,
		timeout: opts.MessageTimeout,
		queue:   make(chan queued, opts.QueueSize),
		done:    make(chan struct{}),
		recent:  newRecentIDs(opts.SeenIDs),
		idle:    idle,
	}
}

// Start launches the dispatch loop, which exits when ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}
	if d.handler == nil {
		return errors.New("handler is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root != nil {
		return errors.New("dispatcher already started")
	}
	d.root = ctx
	go d.loop(ctx)
	return nil
}

// Enqueue submits one message. It blocks while the queue is full and
// rejects a recently seen message ID with ErrDuplicate.
func (d *Dispatcher) Enqueue(ctx context.Context, msg *Message, writer ResponseWriter) error {
	switch {
	case msg == nil:
		return errors.New("message is required")
	case writer == nil:
		return errors.New("response writer is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	root := d.root
	d.mu.Unlock()
	if root == nil {
		return errors.New("dispatcher is not started")
	}
	if !d.recent.add(msg.ID) {
		return ErrDuplicate
	}

	d.track(1)
	select {
	case d.queue <- queued{msg: msg, writer: writer}:
		return nil
	case <-root.Done():
		d.track(-1)
		d.recent.forget(msg.ID)
		return root.Err()
	case <-ctx.Done():
		d.track(-1)
		d.recent.forget(msg.ID)
		return ctx.Err()
	}
}

// Stop cancels the running message and discards everything still queued.
// The loop keeps accepting new messages afterwards.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancelRun
	d.cancelRun = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	for {
		select {
		case <-d.queue:
			d.track(-1)
		default:
			return
		}
	}
}

// WaitUntilIdle blocks until nothing is queued or running, the dispatch loop
// has exited, or ctx is done.
func (d *Dispatcher) WaitUntilIdle(ctx context.Context) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.Lock()
	idle, started := d.idle, d.root != nil
	d.mu.Unlock()
	if !started {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the dispatch loop exits.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	<-d.done
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return
		case item := <-d.queue:
			d.dispatch(ctx, item)
			d.track(-1)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, item queued) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if d.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	d.mu.Lock()
	d.cancelRun = cancel
	d.mu.Unlock()

	started := time.Now()
	err := d.handler.HandleMessage(runCtx, item.writer, item.msg)

	d.mu.Lock()
	d.cancelRun = nil
	d.mu.Unlock()
	cancel()

	log := logging.Logger().With("from", item.msg.From, "id", item.msg.ID)
	switch {
	case err == nil:
		log.Debug("message handled", "duration", time.Since(started))
		return
	case errors.Is(err, context.Canceled):
		log.Debug("message canceled")
		return
	}
	log.Error("message handling failed", "err", err)
	if writeErr := item.writer.WriteMessage(ctx, userVisibleHandlerError); writeErr != nil {
		log.Warn("failed to write handler error message", "err", writeErr)
	}
}

func (d *Dispatcher) track(delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	before := d.pending
	d.pending += delta
	switch {
	case before == 0 && d.pending > 0:
		d.idle = make(chan struct{})
	case before > 0 && d.pending == 0:
		close(d.idle)
	}
}
