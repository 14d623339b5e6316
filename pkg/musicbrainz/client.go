package musicbrainz

import (
	"errors"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	UserAgent  string       // Required: identifies the application, e.g. "tagfill/1.0 (me@example.com)"
	HTTPClient *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL    string       // Optional: Base URL for API (defaults to MusicBrainz WS/2, used for testing)
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for MusicBrainz API operations.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	logger     Logger

	backoff    time.Duration
	maxRetries int

	recordings *RecordingService
}

const (
	// DefaultBaseURL is the default MusicBrainz web service endpoint.
	DefaultBaseURL = "https://musicbrainz.org/ws/2/"
)

// ErrMissingUserAgent is returned by NewClient when no User-Agent is set.
// MusicBrainz rejects anonymous clients.
var ErrMissingUserAgent = errors.New("musicbrainz: UserAgent is required")

// NewClient creates a new MusicBrainz API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, ErrMissingUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}

	c := &Client{
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     cfg.Logger,
		backoff:    1 * time.Second,
		maxRetries: 3,
	}

	c.recordings = &RecordingService{client: c}

	return c, nil
}

// Recordings returns the recording service.
func (c *Client) Recordings() *RecordingService {
	return c.recordings
}

func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
