package circuitbreaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/railclaw/orchestrator/internal/config"
)

// Service identifies an external RPC surface for circuit-breaker isolation.
// Unlike a fixed service enum, Railclaw's services are the chains named in
// the policy/config surface, so breakers are created lazily per chain tag
// the first time that chain is used.
type Service string

// Manager manages one circuit breaker per chain, giving each chain's RPC
// traffic bulkhead isolation so a failing chain's node doesn't trip
// breakers for unrelated chains.
type Manager struct {
	mu       sync.Mutex
	breakers map[Service]*gobreaker.CircuitBreaker
	config   Config
}

// Config holds circuit breaker configuration applied to every chain breaker.
type Config struct {
	Enabled bool
	Default BreakerConfig
}

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration

	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// NewManagerFromConfig creates a circuit breaker manager from application config.
func NewManagerFromConfig(cfg config.CircuitBreakerConfig) *Manager {
	return NewManager(Config{
		Enabled: cfg.Enabled,
		Default: BreakerConfig{
			MaxRequests:         cfg.MaxRequests,
			Interval:            cfg.Interval.Duration,
			Timeout:             cfg.Timeout.Duration,
			ConsecutiveFailures: cfg.ConsecutiveFailures,
			FailureRatio:        cfg.FailureRatio,
			MinRequests:         cfg.MinRequests,
		},
	})
}

// NewManager creates a circuit breaker manager with the given configuration.
func NewManager(cfg Config) *Manager {
	return &Manager{
		breakers: make(map[Service]*gobreaker.CircuitBreaker),
		config:   cfg,
	}
}

func (m *Manager) breakerFor(service Service) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[service]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(toGobreakerSettings(string(service), m.config.Default))
	m.breakers[service] = b
	return b
}

// Execute wraps a function call with circuit breaker protection, scoped to
// the given chain. If circuit breakers are disabled, it executes directly.
func (m *Manager) Execute(service Service, fn func() (interface{}, error)) (interface{}, error) {
	if !m.config.Enabled {
		return fn()
	}
	return m.breakerFor(service).Execute(fn)
}

// State returns the current state of a chain's circuit breaker.
func (m *Manager) State(service Service) string {
	if !m.config.Enabled {
		return "disabled"
	}
	return m.breakerFor(service).State().String()
}

// Counts returns the current counts for a chain's circuit breaker.
func (m *Manager) Counts(service Service) Counts {
	if !m.config.Enabled {
		return Counts{}
	}
	c := m.breakerFor(service).Counts()
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// Counts represents circuit breaker statistics.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func toGobreakerSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 && counts.Requests >= cfg.MinRequests {
				failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
				if failureRate >= cfg.FailureRatio {
					return true
				}
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("chain", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuitbreaker.state_change")
		},
	}
}

// DefaultConfig returns sensible defaults for circuit breaker configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Default: BreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
	}
}
