// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the outbound API clients.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// transient failures. Tests override this to avoid real sleeps.
var RetryBaseDelay = time.Second

const defaultMaxRetries = 3

// Transient reports whether an HTTP status code is worth retrying:
// 429 (rate limit) and the 5xx class.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes an HTTP request and retries on network errors and
// transient status codes (429, 5xx) with exponential backoff. The delay
// starts at RetryBaseDelay and doubles each attempt.
//
// When maxRetries is 0 the default (3) is used. Requests with a body must
// carry GetBody so the body can be replayed; http.NewRequest sets it for
// the common reader types. On each transient response the body is drained
// and closed before sleeping. If the context is cancelled during a backoff
// wait the function returns ctx.Err(). After exhausting retries the last
// transient response (or the last network error) is returned so the caller
// can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = body
		}

		resp, err := client.Do(clone)
		if err == nil && !Transient(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries — surface the last failure as-is.
		if attempt >= maxRetries {
			return resp, err
		}

		if err == nil {
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
