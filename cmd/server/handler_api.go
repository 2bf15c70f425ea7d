package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetsight/fleetsight/internal/fleet"
)

// handleReport accepts one compliance report from an agent and merges it into
// the store. Missing required fields are the client's fault (400); a store
// failure is ours (500). The acknowledgment body is plain text.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var report fleet.Report
	body := http.MaxBytesReader(w, r.Body, maxReportBody)
	if err := json.NewDecoder(body).Decode(&report); err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("undecodable report body")
		http.Error(w, "Missing required fields.", http.StatusBadRequest)
		return
	}

	if err := s.ingestor.Ingest(r.Context(), report); err != nil {
		var verr *fleet.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, "Missing required fields.", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "Data for %s saved.", report.MachineID)
}

// handleMachines returns every machine as a flat JSON array ordered by
// last_seen descending. The dashboard polls this; an empty fleet is [].
func (s *Server) handleMachines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	machines, err := s.query.List(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(machines) //nolint:errcheck
}

// handleSummary returns the fleet-wide compliance rollup, recomputed from a
// fresh store read on every call.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := s.query.Summary(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary) //nolint:errcheck
}

// handleHealth reports process liveness for load balancers and humans.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
