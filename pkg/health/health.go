// Package health tracks service readiness and serves the probe endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// State is a lifecycle phase of the service.
type State string

// Lifecycle phases, in order.
const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateDraining State = "draining"
)

// Checker tracks the readiness state of the service.
// It is safe for concurrent use.
type Checker struct {
	state atomic.Value // State
}

// NewChecker creates a Checker in the Starting state.
func NewChecker() *Checker {
	c := &Checker{}
	c.state.Store(StateStarting)
	return c
}

// SetReady transitions to Ready. Called once listeners are accepting.
func (c *Checker) SetReady() {
	c.state.Store(StateReady)
}

// SetDraining transitions to Draining. Called when shutdown begins.
func (c *Checker) SetDraining() {
	c.state.Store(StateDraining)
}

// State returns the current lifecycle phase.
func (c *Checker) State() State {
	return c.state.Load().(State)
}

// IsReady reports whether the service should receive traffic.
func (c *Checker) IsReady() bool {
	return c.State() == StateReady
}

// RegisterRoutes adds /healthz (liveness) and /readyz (readiness) to mux.
func (c *Checker) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", c.handleLiveness)
	mux.HandleFunc("GET /readyz", c.handleReadiness)
}

// handleLiveness always responds 200; the process is up if it can answer.
func (*Checker) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// handleReadiness responds 200 when Ready and 503 while starting or draining.
func (c *Checker) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	code := http.StatusOK
	if !c.IsReady() {
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, string(c.State()))
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
