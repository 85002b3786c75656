package web

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meetscribe/analyze"
	"meetscribe/mail"
	"meetscribe/session"
)

// Server holds the HTTP surface: health, the synchronous transcript route,
// the test-email route, session monitoring, metrics, and the WebSocket
// recording endpoint.
type Server struct {
	registry *session.Registry
	analyzer *analyze.Analyzer
	sender   mail.Sender
	recorder http.Handler
	logger   *log.Logger

	llmModel     string
	whisperModel string
}

func NewServer(
	registry *session.Registry,
	analyzer *analyze.Analyzer,
	recorder http.Handler,
	sender mail.Sender,
	logger *log.Logger,
	llmModel, whisperModel string,
) *Server {
	return &Server{
		registry:     registry,
		analyzer:     analyzer,
		sender:       sender,
		recorder:     recorder,
		logger:       logger,
		llmModel:     llmModel,
		whisperModel: whisperModel,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/process-transcript", s.handleProcessTranscript)
	r.Post("/test-email", s.handleTestEmail)
	r.Get("/sessions", s.handleSessions)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/record/{sessionID}", s.recorder.ServeHTTP)

	return r
}
