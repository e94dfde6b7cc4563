// Package health implements liveness and readiness probes.
//
// Probes are polled by a single background loop. Each probe carries a
// failure threshold so a transient error does not flip the reported state
// immediately.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Probe reports nil when the checked component is healthy.
type Probe func(ctx context.Context) error

// Kind separates liveness probes from readiness probes.
type Kind int

const (
	// Liveness probes detect a wedged process (goroutine leaks, GC stalls).
	Liveness Kind = iota
	// Readiness probes detect unavailable dependencies (database, caches).
	Readiness
)

type probeEntry struct {
	name      string
	kind      Kind
	timeout   time.Duration
	threshold int
	probe     Probe

	fails   int
	lastErr error
}

// Checker polls registered probes and serves probe results over HTTP.
type Checker struct {
	mu      sync.RWMutex
	probes  []*probeEntry
	ready   bool
	cancel  context.CancelFunc
	started bool
}

// NewChecker returns a Checker in the not-ready state. Call SetReady(true)
// once initialization completes.
func NewChecker() *Checker {
	return &Checker{}
}

// Register adds a probe. A probe is reported failing only after threshold
// consecutive errors; threshold values below 1 are treated as 1.
func (c *Checker) Register(name string, kind Kind, timeout time.Duration, threshold int, p Probe) {
	if threshold < 1 {
		threshold = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, &probeEntry{
		name:      name,
		kind:      kind,
		timeout:   timeout,
		threshold: threshold,
		probe:     p,
	})
}

// Start launches the poll loop. All probes run once immediately, then every
// interval, until ctx is cancelled or Stop is called.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true
	c.mu.Unlock()

	go func() {
		c.poll(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.poll(ctx)
			}
		}
	}()
}

// Stop cancels the poll loop. Safe to call more than once.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.started = false
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown to drain traffic before the listener closes.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	c.ready = ready
	c.mu.Unlock()
}

func (c *Checker) poll(ctx context.Context) {
	c.mu.RLock()
	probes := make([]*probeEntry, len(c.probes))
	copy(probes, c.probes)
	c.mu.RUnlock()

	for _, p := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.probe(probeCtx)
		cancel()

		c.mu.Lock()
		if err != nil {
			p.fails++
			p.lastErr = err
		} else {
			p.fails = 0
			p.lastErr = nil
		}
		c.mu.Unlock()
	}
}

// failures returns name to error message for every tripped probe of the
// given kind.
func (c *Checker) failures(kind Kind) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range c.probes {
		if p.kind != kind || p.fails < p.threshold {
			continue
		}
		msg := "probe failing"
		if p.lastErr != nil {
			msg = p.lastErr.Error()
		}
		out[p.name] = msg
	}
	return out
}

type probeStatus struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveHandler serves the liveness endpoint: 200 while all liveness probes
// pass, 503 with failure details otherwise.
func (c *Checker) LiveHandler(w http.ResponseWriter, _ *http.Request) {
	writeProbeStatus(w, c.failures(Liveness))
}

// ReadyHandler serves the readiness endpoint. The service is ready only
// when SetReady(true) has been called and every readiness probe passes.
func (c *Checker) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	failures := c.failures(Readiness)

	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()
	if !ready {
		failures["startup"] = "service not marked ready"
	}
	writeProbeStatus(w, failures)
}

func writeProbeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeStatus{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "failing"
		resp.Failures = failures
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
