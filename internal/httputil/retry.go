// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP helpers shared by listing fetches and
// file downloads.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/pdiddy/examfetch/pkg/types"
)

// RetryBaseDelay is the first backoff interval after a 429 or 503.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// NewClient returns a client whose timeout guards each stage of an exchange
// rather than the exchange as a whole: dialing, the TLS handshake, and
// waiting for response headers each get cfg.Timeout. Reading the body is
// not bounded here, so a large file that keeps arriving is never cut off;
// callers bound body reads themselves. Zero means no timeouts.
func NewClient(cfg types.HTTPConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Timeout > 0 {
		dialer := &net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second}
		transport.DialContext = dialer.DialContext
		transport.TLSHandshakeTimeout = cfg.Timeout
		transport.ResponseHeaderTimeout = cfg.Timeout
	}
	return &http.Client{Transport: transport}
}

// retryable reports whether a status asks the client to come back later.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries up to maxRetries times while the
// server answers 429 or 503. The delay doubles each attempt starting at
// RetryBaseDelay. With maxRetries 0 the request is sent once.
//
// The body of a retried response is drained and closed before sleeping.
// Once retries are exhausted the last response is returned unchanged.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Get issues a GET for url with the configured User-Agent and retry budget.
// Any status other than 200 is an error; on success the caller owns the body.
func Get(ctx context.Context, client *http.Client, url string, cfg types.HTTPConfig) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return resp, nil
}
