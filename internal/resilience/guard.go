package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/config"
)

// Guard runs provider calls through that provider's breaker and the retry
// policy.
type Guard struct {
	breakers *Breakers
	retry    RetryConfig
}

// NewGuard builds a Guard from the resilience config section.
func NewGuard(cfg config.ResilienceConfig) *Guard {
	return &Guard{
		breakers: NewBreakers(BreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			ResetTimeout:     time.Duration(cfg.ResetTimeoutSecs) * time.Second,
			OnStateChange:    logStateChange,
		}),
		retry: RetryConfig{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.MaxBackoffMs) * time.Millisecond,
			JitterFraction: 0.25,
		},
	}
}

// Breakers exposes the breaker set for status reporting.
func (g *Guard) Breakers() *Breakers {
	return g.breakers
}

// Call runs fn for provider. An open circuit rejects without calling fn; the
// breaker sees one outcome per Call, not per attempt.
func Call[T any](ctx context.Context, g *Guard, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	b := g.breakers.Get(provider)
	if err := b.Allow(); err != nil {
		return zero, err
	}

	rc := g.retry
	rc.OnRetry = RetryLogger(provider)
	val, err := Retry(ctx, rc, fn)
	if ctx.Err() == nil {
		b.Record(err)
	}
	return val, err
}

func logStateChange(provider string, from, to CircuitState) {
	zap.L().Info("resilience: circuit state change",
		zap.String("provider", provider),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
