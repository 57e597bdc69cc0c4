package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler processes one inbound message, replying through out.
type Handler interface {
	Handle(ctx context.Context, in domain.InboundMessage, out ports.Sender) error
}

// Sessions is the administrative view of the session store.
// *session.Manager satisfies it.
type Sessions interface {
	Load(ctx context.Context, conversantID string) (*domain.Session, error)
	Delete(ctx context.Context, conversantID string) error
	List(ctx context.Context) ([]string, error)
}

// Platform tags messages received over HTTP.
const Platform = "http"

// Server exposes the bot and session administration over HTTP.
type Server struct {
	Bot      Handler
	Sessions Sessions
	Streams  *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates the HTTP adapter.
func NewServer(bot Handler, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		Bot:      bot,
		Sessions: sessions,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", s.PostMessage)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
	})

	return r
}

// MessageRequest is the body of POST /v1/messages.
type MessageRequest struct {
	ConversantID string `json:"conversant_id"`
	Contact      string `json:"contact,omitempty"`
	Text         string `json:"text"`
}

// Message is one reply from the bot.
type Message struct {
	Text       string             `json:"text,omitempty"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

// MessageResponse is the body returned by POST /v1/messages.
type MessageResponse struct {
	Messages []Message `json:"messages"`
}

// collector is a ports.Sender buffering replies for the HTTP response.
type collector struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *collector) Send(_ context.Context, msg domain.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, Message{Text: msg.Text, Attachment: msg.Attachment})
	return nil
}

// PostMessage handles POST /v1/messages. The message is processed
// synchronously and the replies are returned in the response.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostMessage: Invalid request body", "err", err)
		return
	}
	if body.ConversantID == "" {
		http.Error(w, "conversant_id is required", http.StatusBadRequest)
		return
	}

	out := &collector{}
	err := s.Bot.Handle(r.Context(), domain.InboundMessage{
		Platform:     Platform,
		ConversantID: body.ConversantID,
		Contact:      body.Contact,
		Text:         body.Text,
	}, out)
	if err != nil {
		http.Error(w, fmt.Sprintf("Handle error: %v", err), http.StatusInternalServerError)
		s.logger.Error("PostMessage failed", "conversant_id", body.ConversantID, "err", err)
		return
	}

	resp := MessageResponse{Messages: out.msgs}
	if resp.Messages == nil {
		resp.Messages = []Message{}
	}
	for _, m := range resp.Messages {
		if data, err := json.Marshal(m); err == nil {
			s.Streams.Broadcast(body.ConversantID, string(data))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles GET /v1/events?conversant_id=... (SSE). Every
// reply the bot sends to the conversant is pushed as a data event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	conversantID := r.URL.Query().Get("conversant_id")
	if conversantID == "" {
		http.Error(w, "conversant_id is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(conversantID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to conversant", "conversant_id", conversantID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "conversant_id", conversantID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// ListSessions handles GET /v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("ListSessions failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetSession failed", "conversant_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("DeleteSession failed", "conversant_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "ouvidoria",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
