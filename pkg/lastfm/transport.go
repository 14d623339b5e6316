package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// apiError is the JSON body Last.fm returns for failed calls.
type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// call makes an HTTP GET request to the Last.fm API with retry logic.
//
// It handles:
// - Query construction (method, api_key, format=json)
// - Error envelope detection ({"error": N, "message": ...})
// - Retry with exponential backoff for network errors, 5xx and temporary API errors
// - Context cancellation
//
// On success the raw JSON body is returned for the caller to decode.
func (c *Client) call(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("method", method)
	query.Set("api_key", c.apiKey)
	query.Set("format", "json")

	reqURL := c.baseURL + "?" + query.Encode()

	var lastErr error
	backoff := c.backoff

	for i := 0; i < c.maxRetries; i++ {
		c.logDebugf("lastfm: calling %s (attempt %d/%d)", method, i+1, c.maxRetries)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if shouldRetryNetworkError(err) && i < c.maxRetries-1 {
				c.logDebugf("lastfm: network error, retrying: %v", err)
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, fmt.Errorf("http request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		// Last.fm reports most failures in a JSON envelope, sometimes with a
		// non-200 status, so look for it before judging the status code.
		if lastfmErr := parseError(body); lastfmErr != nil {
			if lastfmErr.Temporary() && i < c.maxRetries-1 {
				c.logDebugf("lastfm: temporary error, retrying: %v", lastfmErr)
				lastErr = lastfmErr
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, lastfmErr
		}

		if resp.StatusCode >= 500 {
			lastErr = &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
			if i < c.maxRetries-1 {
				c.logDebugf("lastfm: server error, retrying: %v", lastErr)
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}

		c.logDebugf("lastfm: %s succeeded", method)
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// parseError returns the API error carried in body, or nil if body is not
// an error envelope.
func parseError(body []byte) *Error {
	var env apiError
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Code == 0 {
		return nil
	}
	return &Error{Code: env.Code, Message: env.Message}
}

// shouldRetryNetworkError checks if a network error is retryable.
func shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential increase.
// Maximum backoff is capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
