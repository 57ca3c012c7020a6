// Package httpapi exposes the chat service over HTTP. The transport stays
// thin: it resolves the caller's identity, hands the turn to the graph
// runner, and maps error kinds onto status codes. Agent-level failures are
// answered in natural language with a 200; only transport problems get real
// error statuses.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hr-copilot-poc/server/internal/agent/graph"
	"github.com/hr-copilot-poc/server/internal/agent/graph/sessions"
	"github.com/hr-copilot-poc/server/internal/agent/model"
	errx "github.com/hr-copilot-poc/server/internal/core/error"
	"github.com/hr-copilot-poc/server/internal/hr/store"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// IdentityResolver is the slice of the HR store the transport needs: turning
// a trusted username into an id, and reading the profile row for /whoami.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, username string) (int64, error)
	Profile(ctx context.Context, userID int64) (store.Profile, error)
}

// Server carries the handler dependencies.
type Server struct {
	runner graph.Runner
	ids    IdentityResolver
}

func NewServer(runner graph.Runner, ids IdentityResolver) *Server {
	return &Server{runner: runner, ids: ids}
}

// Handler returns the routed handler wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /whoami/{username}", s.handleWhoami)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return withRequestLog(mux)
}

// ChatRequest is the body of POST /chat. The username is trusted as-is;
// there is no authentication layer in this demo.
type ChatRequest struct {
	User    string `json:"user"`
	Text    string `json:"text"`
	Session string `json:"session,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.User = strings.TrimSpace(req.User)
	if req.User == "" {
		writeError(w, http.StatusBadRequest, "'user' is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "'text' is required")
		return
	}

	userID, err := s.ids.ResolveUser(r.Context(), req.User)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "unknown user")
			return
		}
		logx.Error().Err(err).Str("user", req.User).Msg("Identity resolution failed")
		writeError(w, http.StatusBadGateway, errx.SafeMessage(err))
		return
	}

	reply, err := s.runner.Invoke(r.Context(), model.QueryInput{
		UserID:     userID,
		SessionKey: sessions.Key(userID, req.Session),
		Query:      req.Text,
	})
	if err != nil {
		if errx.KindOf(err) == errx.KindArgument {
			writeError(w, http.StatusBadRequest, errx.SafeMessage(err))
			return
		}
		// The turn failed mid-run. The caller still gets a conversational
		// reply; the details stay in the log.
		logx.Error().Err(err).Int64("user_id", userID).Msg("Chat turn failed")
		writeJSON(w, http.StatusOK, ChatResponse{Reply: errx.SafeMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	userID, err := s.ids.ResolveUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "unknown user")
			return
		}
		writeError(w, http.StatusBadGateway, errx.SafeMessage(err))
		return
	}

	profile, err := s.ids.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusBadGateway, errx.SafeMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags every request with a correlation id and logs one line
// per request.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logx.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
