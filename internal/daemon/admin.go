package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/metrics"
	"git.home.luguber.info/inful/codesearch/internal/runlog"
)

const defaultRunsLimit = 50

// adminHandler builds the admin mux: liveness, Prometheus metrics, and the
// recent run history out of the run log.
func (d *Daemon) adminHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.handleHealthz)
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/runs", d.handleRuns)
	return mux
}

func (d *Daemon) startAdminServer(listen string) {
	d.admin = &http.Server{
		Addr:         listen,
		Handler:      d.adminHandler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := d.admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Admin server error", logfields.Error(err))
		}
	}()
	slog.Info("Admin server listening", slog.String("addr", listen))
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(d.startTime).Seconds()),
	})
}

type runResponse struct {
	RunID      string    `json:"run_id"`
	Profile    string    `json:"profile"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    string    `json:"outcome"`
	Repos      int       `json:"repositories"`
	Changed    bool      `json:"changed"`
	Restarted  bool      `json:"restarted"`
	Error      string    `json:"error,omitempty"`
}

func (d *Daemon) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := d.store.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to query run log", logfields.Error(err))
		http.Error(w, "run log unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toRunResponses(records))
}

func toRunResponses(records []runlog.Record) []runResponse {
	runs := make([]runResponse, 0, len(records))
	for _, rec := range records {
		runs = append(runs, runResponse{
			RunID:      rec.RunID,
			Profile:    rec.Profile,
			StartedAt:  rec.StartedAt,
			DurationMS: rec.Duration.Milliseconds(),
			Outcome:    rec.Outcome,
			Repos:      rec.Repos,
			Changed:    rec.Changed,
			Restarted:  rec.Restarted,
			Error:      rec.Error,
		})
	}
	return runs
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", logfields.Error(err))
	}
}
