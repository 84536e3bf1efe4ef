// Package resilience guards provider calls with per-provider circuit breakers
// and retries of transient failures.
package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the reset timeout elapses.
	CircuitOpen
	// CircuitHalfOpen lets a single trial call through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open. Default: 60s.
	ResetTimeout time.Duration

	// OnStateChange is called with the provider id on every transition.
	OnStateChange func(provider string, from, to CircuitState)
}

// Breaker trips after consecutive failures of one provider.
type Breaker struct {
	name  string
	cfg   BreakerConfig
	mu    sync.Mutex
	state CircuitState

	failures    int
	lastFailure time.Time

	nowFunc func() time.Time
}

// NewBreaker creates a breaker for the named provider.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	return &Breaker{
		name:    name,
		cfg:     cfg,
		state:   CircuitClosed,
		nowFunc: time.Now,
	}
}

// State returns the current circuit state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen && b.nowFunc().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Allow reports whether a call may proceed, moving an expired open circuit
// to half-open.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitOpen {
		return nil
	}
	if b.nowFunc().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		b.transition(CircuitHalfOpen)
		return nil
	}
	return eris.Wrapf(ErrCircuitOpen, "provider %s", b.name)
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == CircuitHalfOpen {
			b.transition(CircuitClosed)
		}
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()

	switch b.state {
	case CircuitClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		b.transition(CircuitOpen)
	}
}

func (b *Breaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}

// Breakers holds one breaker per provider id.
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      BreakerConfig
	nowFunc  func() time.Time
}

// NewBreakers creates an empty per-provider breaker set.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
		nowFunc:  time.Now,
	}
}

// WithNow sets the clock handed to breakers created afterwards.
func (bs *Breakers) WithNow(fn func() time.Time) *Breakers {
	bs.nowFunc = fn
	return bs
}

// AddStateHook chains fn onto the state-change callback of breakers created
// afterwards.
func (bs *Breakers) AddStateHook(fn func(provider string, from, to CircuitState)) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	prev := bs.cfg.OnStateChange
	bs.cfg.OnStateChange = func(provider string, from, to CircuitState) {
		if prev != nil {
			prev(provider, from, to)
		}
		fn(provider, from, to)
	}
}

// Get returns the breaker for provider, creating one if needed.
func (bs *Breakers) Get(provider string) *Breaker {
	bs.mu.RLock()
	b, ok := bs.breakers[provider]
	bs.mu.RUnlock()
	if ok {
		return b
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	if b, ok = bs.breakers[provider]; ok {
		return b
	}
	b = NewBreaker(provider, bs.cfg)
	b.nowFunc = bs.nowFunc
	bs.breakers[provider] = b
	return b
}

// BreakerStatus is a snapshot row for one provider.
type BreakerStatus struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
	Failures int    `json:"failures"`
}

// Snapshot returns the state of every known breaker sorted by provider id.
func (bs *Breakers) Snapshot() []BreakerStatus {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	out := make([]BreakerStatus, 0, len(bs.breakers))
	for name, b := range bs.breakers {
		out = append(out, BreakerStatus{
			Provider: name,
			State:    b.State().String(),
			Failures: b.Failures(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
