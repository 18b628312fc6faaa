// Package webhook serves the WhatsApp Cloud API webhook and the admin API.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/almeera/ultah/internal/birthday"
	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/runtime"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	defaultQueueSize      = 64
	defaultMessageTimeout = 2 * time.Minute
	shutdownTimeout       = 10 * time.Second
)

// Replier opens a reply channel to one WhatsApp user.
type Replier interface {
	Writer(to string) runtime.ResponseWriter
}

// RunFunc runs the daily birthday pass on demand.
type RunFunc func(ctx context.Context) (*birthday.Summary, error)

// Options configures a Server.
type Options struct {
	Addr string
	// VerifyToken answers Meta's subscription handshake.
	VerifyToken string
	// AdminToken guards the admin API. Empty disables it.
	AdminToken string
	Debug      bool
}

// Server routes inbound WhatsApp messages to a Handler through a Dispatcher.
type Server struct {
	opts       Options
	router     *chi.Mux
	httpServer *http.Server
	dispatcher *runtime.Dispatcher
	replier    Replier
	runPass    RunFunc
}

// NewServer builds the router. runPass may be nil, which disables the
// reminders endpoint.
func NewServer(opts Options, handler runtime.Handler, replier Replier, runPass RunFunc) *Server {
	r := chi.NewRouter()
	s := &Server{
		opts:    opts,
		router:  r,
		replier: replier,
		runPass: runPass,
		dispatcher: runtime.NewDispatcher(handler, runtime.DispatcherOptions{
			QueueSize:      defaultQueueSize,
			MessageTimeout: defaultMessageTimeout,
		}),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(opts.Debug))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      6 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Get("/webhook", s.handleVerify)
	s.router.Post("/webhook", s.handleInbound)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/reminders/run", s.handleRunReminders)
	})
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run starts the dispatcher and serves HTTP until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger().Info("webhook server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		s.dispatcher.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logging.Logger().Info("shutting down webhook server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shut down server: %w", err)
	}
	s.dispatcher.Wait()
	return <-errCh
}

func requestLogger(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Millisecond),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			}
			if debug || ww.Status() >= http.StatusInternalServerError {
				logging.Logger().Info("http request", attrs...)
				return
			}
			logging.Logger().Debug("http request", attrs...)
		})
	}
}
