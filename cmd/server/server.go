package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetsight/fleetsight/internal/fleet"
	"github.com/fleetsight/fleetsight/internal/store"
)

// maxReportBody bounds /api/report request bodies. Reports are small; anything
// near this limit is not an agent.
const maxReportBody = 1 << 20 // 1MB

// Server wires the ingestion and query services to the HTTP surface.
// It holds no fleet state of its own; every request goes to the store.
type Server struct {
	ingestor *fleet.Ingestor
	query    *fleet.Query
	webDir   string
	log      zerolog.Logger
	started  time.Time
}

// NewServer creates a Server backed by the given store.
func NewServer(db store.Store, webDir string, log zerolog.Logger) *Server {
	return &Server{
		ingestor: fleet.NewIngestor(db, log),
		query:    fleet.NewQuery(db, log),
		webDir:   webDir,
		log:      log,
		started:  time.Now(),
	}
}

// routes registers all HTTP handlers on mux.
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/machines", s.handleMachines)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.webDir)))
	}
}
