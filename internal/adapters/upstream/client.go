// Package upstream wraps outbound HTTP calls with rate limiting, retries and
// a circuit breaker. The catalog and tagging adapters share it.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/metrics"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// Config tunes a Client.
type Config struct {
	// Name labels logs, metrics and the circuit breaker.
	Name              string
	MaxRetries        int
	BaseBackoff       time.Duration
	RequestsPerSecond float64
	// Permanent reports transport errors that must not be retried, such as
	// rejected credentials. They do not count against the breaker.
	Permanent func(error) bool
	Breaker   BreakerConfig
}

// Client sends requests on behalf of one upstream service.
type Client struct {
	httpClient  *http.Client
	name        string
	maxRetries  int
	baseBackoff time.Duration
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	permanent   func(error) bool
}

// New constructs a Client. A zero RequestsPerSecond disables rate limiting.
func New(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBackoff
	}
	if cfg.Permanent == nil {
		cfg.Permanent = func(error) bool { return false }
	}

	c := &Client{
		httpClient:  httpClient,
		name:        cfg.Name,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		permanent:   cfg.Permanent,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	c.breaker = newBreaker(cfg.Name, cfg.Breaker, c.countsAsSuccess)
	return c
}

// Do sends req through the breaker and the retry loop. Non-retryable
// responses, including 4xx, are returned to the caller unchanged. An open
// breaker yields domain.ErrUpstreamUnavailable.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.doRequestWithRetry(req)
	})

	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.ObserveUpstream(c.name, status, start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: circuit open: %w: %w", c.name, domain.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	return c.permanent(err) || errors.Is(err, errCanceled)
}
