package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/curate/internal/shared"
)

// RateLimiter gates outbound requests. Wait blocks until the next request may be sent.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a limiter that admits one request per interval.
//
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// NoopLimiter never waits.
type NoopLimiter struct{}

func (NoopLimiter) Wait(ctx context.Context) error { return ctx.Err() }

// defaultInterval is the spacing Discogs tolerates for authenticated clients.
const defaultInterval = 1100 * time.Millisecond

// maxErrorBody caps how much of an error response is kept in [shared.APIError].
const maxErrorBody = 4096

// checkResponse maps a non-2xx response onto the shared error types.
func checkResponse(resp *http.Response, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &shared.RateLimitError{Endpoint: endpoint, RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &shared.APIError{Status: resp.StatusCode, Body: string(body)}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// wrapTransport distinguishes cancellation from network failures.
func wrapTransport(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	return fmt.Errorf("request failed: %w", err)
}
