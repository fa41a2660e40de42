// Package service exposes the live state of a run over HTTP: a health probe,
// a JSON snapshot of the status map, and Prometheus metrics.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/loomtest/loom/runner"
	"github.com/loomtest/loom/types"
)

// TestStatus is the wire form of one cell's current status.
type TestStatus struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Fraction float64 `json:"fraction,omitempty"`
	Message  string  `json:"message,omitempty"`
	Outcome  string  `json:"outcome,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RunStatus is the wire form of a whole run snapshot.
type RunStatus struct {
	RunID    string       `json:"run_id"`
	Finished bool         `json:"finished"`
	Tests    []TestStatus `json:"tests"`
}

// Server serves run status. The current run is swapped in by the service
// layer whenever a new run launches; observers only ever read cells.
type Server struct {
	log    *log.Logger
	server *http.Server

	mu  sync.Mutex
	run *runner.Run
}

// New creates a status server listening on addr.
func New(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	s.server = &http.Server{
		Addr:    addr,
		Handler: c.Handler(mux),
	}
	return s
}

// SetRun publishes the run whose status the server reports.
func (s *Server) SetRun(run *runner.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("Status server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK")) //nolint:errcheck
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if run == nil {
		http.Error(w, `{"error":"no run in progress"}`, http.StatusNotFound)
		return
	}

	if err := json.NewEncoder(w).Encode(snapshotRun(run)); err != nil {
		s.log.Error("Failed to encode status", "error", err)
	}
}

func snapshotRun(run *runner.Run) RunStatus {
	status := RunStatus{
		RunID:    run.ID,
		Finished: run.Status.Finished(),
		Tests:    make([]TestStatus, 0, run.Status.Len()),
	}
	for i, s := range run.Status.Snapshot() {
		ts := TestStatus{
			Index: i,
			Name:  run.Status.Name(i),
			State: s.Kind.String(),
		}
		switch s.Kind {
		case types.StatusExecuting:
			ts.Fraction = s.Progress.Fraction
			ts.Message = s.Progress.Message
		case types.StatusDone:
			ts.Outcome = string(s.Result.Outcome)
			ts.Message = s.Result.Detail
		case types.StatusException:
			ts.Error = s.Err.Error()
		}
		status.Tests = append(status.Tests, ts)
	}
	return status
}
