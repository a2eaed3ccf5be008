// Package breaker guards calls to fallible collaborators with independent
// named circuits. State is in-process only and resets on restart.
package breaker

import (
	"sync"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"go.uber.org/zap"
)

type State string

const STATE_CLOSED State = "CLOSED"
const STATE_OPEN State = "OPEN"
const STATE_HALF_OPEN State = "HALF_OPEN"

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	MonitoringWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		MonitoringWindow: 60 * time.Second,
	}
}

type circuit struct {
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	nextAttemptTime time.Time
	config          Config
}

// Snapshot is the read-only view of one circuit for the ops surface.
type Snapshot struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	FailureCount    int       `json:"failureCount"`
	SuccessCount    int       `json:"successCount"`
	LastFailureTime time.Time `json:"lastFailureTime,omitempty"`
	NextAttemptTime time.Time `json:"nextAttemptTime,omitempty"`
}

type Registry struct {
	mu       sync.Mutex
	circuits map[string]*circuit
	defaults Config
	now      func() time.Time
}

func NewRegistry(defaults Config) *Registry {
	if defaults.FailureThreshold <= 0 {
		defaults = DefaultConfig()
	}
	return &Registry{
		circuits: make(map[string]*circuit),
		defaults: defaults,
		now:      time.Now,
	}
}

// Execute runs fn guarded by the named circuit. While the circuit is open
// and its timeout has not elapsed the call is rejected immediately with
// model.CircuitOpenError; the first call after the timeout runs as a
// half-open trial.
func (r *Registry) Execute(name string, fn func() (any, error), cfg *Config) (any, error) {
	if err := r.beforeCall(name, cfg); err != nil {
		return nil, err
	}
	result, err := fn()
	r.afterCall(name, err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Registry) beforeCall(name string, cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getCircuit(name, cfg)
	now := r.now()
	switch c.state {
	case STATE_OPEN:
		if now.Before(c.nextAttemptTime) {
			return model.CircuitOpenError{Circuit: name}
		}
		c.state = STATE_HALF_OPEN
		c.successCount = 0
		logger.Info("circuit half open", zap.String("circuit", name))
	case STATE_CLOSED:
		// failures outside the monitoring window are stale
		if c.failureCount > 0 && now.Sub(c.lastFailureTime) > c.config.MonitoringWindow {
			c.failureCount = 0
		}
	}
	return nil
}

func (r *Registry) afterCall(name string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getCircuit(name, nil)
	if success {
		r.onSuccess(name, c)
	} else {
		r.onFailure(name, c)
	}
}

func (r *Registry) onSuccess(name string, c *circuit) {
	switch c.state {
	case STATE_HALF_OPEN:
		c.successCount++
		if c.successCount >= c.config.SuccessThreshold {
			c.state = STATE_CLOSED
			c.failureCount = 0
			c.successCount = 0
			logger.Info("circuit closed", zap.String("circuit", name))
		}
	case STATE_CLOSED:
		c.failureCount = 0
	}
}

func (r *Registry) onFailure(name string, c *circuit) {
	now := r.now()
	c.lastFailureTime = now
	switch c.state {
	case STATE_HALF_OPEN:
		c.state = STATE_OPEN
		c.nextAttemptTime = now.Add(c.config.OpenTimeout)
		logger.Warn("circuit reopened", zap.String("circuit", name))
	case STATE_CLOSED:
		c.failureCount++
		if c.failureCount >= c.config.FailureThreshold {
			c.state = STATE_OPEN
			c.nextAttemptTime = now.Add(c.config.OpenTimeout)
			logger.Warn("circuit opened", zap.String("circuit", name), zap.Int("failures", c.failureCount))
		}
	}
}

func (r *Registry) getCircuit(name string, cfg *Config) *circuit {
	c, ok := r.circuits[name]
	if !ok {
		conf := r.defaults
		if cfg != nil {
			conf = *cfg
		}
		c = &circuit{state: STATE_CLOSED, config: conf}
		r.circuits[name] = c
	}
	return c
}

func (r *Registry) State(name string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.circuits[name]; ok {
		return c.state
	}
	return STATE_CLOSED
}

func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.circuits))
	for name, c := range r.circuits {
		out = append(out, Snapshot{
			Name:            name,
			State:           c.state,
			FailureCount:    c.failureCount,
			SuccessCount:    c.successCount,
			LastFailureTime: c.lastFailureTime,
			NextAttemptTime: c.nextAttemptTime,
		})
	}
	return out
}
