package upstream

import (
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ewilliams-labs/moodmatch/internal/logging"
	"github.com/ewilliams-labs/moodmatch/internal/metrics"
)

// BreakerConfig tunes the circuit breaker. Zero values take defaults.
type BreakerConfig struct {
	// MinRequests is how many requests an interval needs before it can trip.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func (b BreakerConfig) withDefaults() BreakerConfig {
	if b.MinRequests == 0 {
		b.MinRequests = 10
	}
	if b.FailureRatio <= 0 {
		b.FailureRatio = 0.6
	}
	if b.Interval <= 0 {
		b.Interval = time.Minute
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = 30 * time.Second
	}
	return b
}

func newBreaker(name string, cfg BreakerConfig, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[*http.Response] {
	cfg = cfg.withDefaults()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
