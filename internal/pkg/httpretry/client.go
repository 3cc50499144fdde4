// Package httpretry wraps an HTTP client with retry logic and exponential
// backoff for calls against the Sheets, mail and ticketing APIs.
package httpretry

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries transient failures with exponential backoff and jitter.
type RetryClient struct {
	client      HTTPDoer
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewRetryClient wraps the given HTTPDoer. If client is nil, a default
// http.Client with a 30s timeout is used. maxAttempts counts retries after
// the initial request (default 3).
func NewRetryClient(client HTTPDoer, maxAttempts int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RetryClient{
		client:      client,
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		maxDelay:    30 * time.Second,
	}
}

// Do executes the request, retrying on 429/500/503/504 and on transient
// network errors. Client errors (4xx other than 429) are returned
// immediately. The final attempt's response is returned as-is so the caller
// can inspect the status and body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= rc.maxAttempts; attempt++ {
		if err := req.Context().Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: reset request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.backoff(attempt)
			log.Printf("httpretry: attempt %d/%d for %s %s%s (waiting %s)",
				attempt, rc.maxAttempts, req.Method, req.URL.Host, req.URL.Path, delay)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt == rc.maxAttempts {
			return resp, nil
		}

		// Drain for connection reuse before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// backoff returns the delay before the given retry attempt: full jitter over
// baseDelay * 2^(attempt-1), capped at maxDelay, floored at 100ms.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	exp := float64(rc.baseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(rc.maxDelay) {
		exp = float64(rc.maxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

// retryableStatus reports whether the status code is a transient error the
// upstream APIs document as safe to retry: 429, 500, 503, 504.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
