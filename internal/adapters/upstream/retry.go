package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ewilliams-labs/moodmatch/internal/logging"
)

var errCanceled = errors.New("request canceled")

func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: read request body: %w", c.name, err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	ctx := req.Context()
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", c.name, errCanceled, err)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s: rate limit wait: %w: %w", c.name, errCanceled, err)
			}
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("%s: reset request body: %w", c.name, err)
			}
			req.Body = body
		}

		resp, err := c.httpClient.Do(req)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w: %w", c.name, errCanceled, err)
		}
		if err != nil && c.permanent(err) {
			return nil, err
		}
		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		attemptNum := attempt + 1
		event := logging.Ctx(ctx).Warn().Str("service", c.name).Int("attempt", attemptNum).Int("max_attempts", c.maxRetries)
		if err != nil {
			event.Err(err).Msg("retrying after transport error")
		} else if resp != nil {
			event.Int("status", resp.StatusCode).Msg("retrying after status")
			_ = resp.Body.Close()
		}

		if attempt == c.maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("%s: request failed after %d attempts: %w", c.name, c.maxRetries, err)
			}
			return nil, fmt.Errorf("%s: request failed after %d attempts: status %d", c.name, c.maxRetries, resp.StatusCode)
		}

		backoff := c.baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = retryAfter
		}

		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", c.name, errCanceled, err)
		}
	}

	return nil, fmt.Errorf("%s: request failed after %d attempts", c.name, c.maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}

	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		until := time.Until(when)
		if until > 0 {
			return until
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
