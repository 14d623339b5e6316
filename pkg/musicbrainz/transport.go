package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// HTTPError is returned for non-2xx responses that are not retried, or
// that are still failing after the last retry.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("musicbrainz: unexpected status code: %d", e.StatusCode)
}

// Temporary reports whether the status signals throttling or an outage.
// MusicBrainz answers 503 when a client exceeds its rate limit.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusServiceUnavailable ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// get performs a GET against path with query and returns the body,
// retrying throttled and failed requests with exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("fmt", "json")
	reqURL := c.baseURL + path + "?" + query.Encode()

	var lastErr error
	backoff := c.backoff

	for i := 0; i < c.maxRetries; i++ {
		c.logDebugf("musicbrainz: GET %s (attempt %d/%d)", path, i+1, c.maxRetries)

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
			var netErr net.Error
			if errors.As(err, &netErr) && i < c.maxRetries-1 {
				c.logDebugf("musicbrainz: network error, retrying: %v", err)
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

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
			if httpErr.Temporary() && i < c.maxRetries-1 {
				c.logDebugf("musicbrainz: %v, retrying", httpErr)
				lastErr = httpErr
				if !sleep(ctx, backoff) {
					return nil, ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return nil, httpErr
		}

		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

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

// nextBackoff doubles the delay, capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
