package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/runtime"
	"github.com/almeera/ultah/internal/scheduler"
)

const maxPayloadBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVerify answers Meta's webhook subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || s.opts.VerifyToken == "" || !tokensEqual(token, s.opts.VerifyToken) {
		logging.Logger().Warn("webhook verification rejected", "mode", mode)
		respondError(w, http.StatusForbidden, "verification failed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handleInbound queues every text message in the payload and acknowledges
// immediately; replies are sent asynchronously by the dispatcher.
func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	queued := 0
	for _, msg := range payload.TextMessages() {
		if s.replier == nil {
			break
		}
		err := s.dispatcher.Enqueue(r.Context(), msg, s.replier.Writer(msg.From))
		switch {
		case err == nil:
			queued++
		case errors.Is(err, runtime.ErrDuplicate):
			logging.Logger().Debug("duplicate webhook message dropped", "id", msg.ID)
		default:
			logging.Logger().Warn("queue webhook message failed", "id", msg.ID, "from", msg.From, "err", err)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "queued": queued})
}

func (s *Server) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	if s.runPass == nil {
		respondError(w, http.StatusNotImplemented, "birthday pass is not configured")
		return
	}

	summary, err := s.runPass(r.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			respondError(w, http.StatusConflict, "birthday pass already running")
			return
		}
		logging.Logger().Error("birthday pass failed", "err", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		RunID:      summary.RunID,
		Date:       summary.Date.Format("2006-01-02"),
		Loaded:     summary.Loaded,
		Updated:    summary.Updated,
		Targets:    summary.Targets(),
		Sent:       summary.Count(channels.StatusSent),
		Failed:     summary.Count(channels.StatusFailed),
		Simulated:  summary.Count(channels.StatusSimulated),
		ReportPath: summary.ReportPath,
	})
}

// RunResponse is the body returned by the reminders endpoint.
type RunResponse struct {
	RunID      string `json:"run_id"`
	Date       string `json:"date"`
	Loaded     int    `json:"loaded"`
	Updated    int    `json:"updated"`
	Targets    int    `json:"targets"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Simulated  int    `json:"simulated"`
	ReportPath string `json:"report_path,omitempty"`
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminToken == "" {
			respondError(w, http.StatusNotFound, "admin API is disabled")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !tokensEqual(strings.TrimSpace(token), s.opts.AdminToken) {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokensEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
