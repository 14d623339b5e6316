package lastfm

import (
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	APIKey     string       // Required: Last.fm API key
	HTTPClient *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL    string       // Optional: Base URL for API (defaults to Last.fm API, used for testing)
	UserAgent  string       // Optional: User-Agent header (defaults to DefaultUserAgent)
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Last.fm API operations.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     Logger

	// backoff is the initial retry delay; tests shorten it.
	backoff    time.Duration
	maxRetries int

	artist *ArtistService
	track  *TrackService
}

const (
	// DefaultBaseURL is the default Last.fm API endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// DefaultUserAgent identifies tagfill to Last.fm.
	DefaultUserAgent = "tagfill/1.0"
)

// NewClient creates a new Last.fm API client.
//
// Returns ErrMissingAPIKey if no API key is configured.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		logger:     cfg.Logger,
		backoff:    1 * time.Second,
		maxRetries: 3,
	}

	c.artist = &ArtistService{client: c}
	c.track = &TrackService{client: c}

	return c, nil
}

// Artist returns the artist service.
func (c *Client) Artist() *ArtistService {
	return c.artist
}

// Track returns the track service.
func (c *Client) Track() *TrackService {
	return c.track
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
