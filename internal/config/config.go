package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Log level for all commands (debug, info, warn, error)
	LogLevel string

	LastFM      LastFMConfig
	MusicBrainz MusicBrainzConfig

	// Per-job settings
	Genres     JobConfig
	Recordings JobConfig
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey    string
	BaseURL   string
	RateLimit float64 // requests per second
}

// MusicBrainzConfig holds MusicBrainz specific configuration
type MusicBrainzConfig struct {
	UserAgent string
	BaseURL   string
	RateLimit float64 // requests per second
}

// JobConfig holds settings of one enrichment job
type JobConfig struct {
	CheckpointInterval int
}

// DefaultUserAgent is sent to MusicBrainz unless configured otherwise.
// MusicBrainz asks clients to identify themselves with a contact URL.
const DefaultUserAgent = "tagfill/1.0 ( https://github.com/jfmyers9/tagfill )"

// Load reads configuration from file, .env and environment
func Load() (*Config, error) {
	// Variables already set in the environment win over .env
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("lastfm.rate_limit", 5)
	v.SetDefault("musicbrainz.user_agent", DefaultUserAgent)
	v.SetDefault("musicbrainz.rate_limit", 1)
	v.SetDefault("genres.checkpoint_interval", 1000)
	v.SetDefault("recordings.checkpoint_interval", 50)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Read from environment variables: TAGFILL_LASTFM_API_KEY etc.
	v.SetEnvPrefix("TAGFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bare LASTFM_API_KEY is what most .env files carry
	_ = v.BindEnv("lastfm.api_key", "TAGFILL_LASTFM_API_KEY", "LASTFM_API_KEY")

	// Map config to struct
	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		LastFM: LastFMConfig{
			APIKey:    v.GetString("lastfm.api_key"),
			BaseURL:   v.GetString("lastfm.base_url"),
			RateLimit: v.GetFloat64("lastfm.rate_limit"),
		},
		MusicBrainz: MusicBrainzConfig{
			UserAgent: v.GetString("musicbrainz.user_agent"),
			BaseURL:   v.GetString("musicbrainz.base_url"),
			RateLimit: v.GetFloat64("musicbrainz.rate_limit"),
		},
		Genres: JobConfig{
			CheckpointInterval: v.GetInt("genres.checkpoint_interval"),
		},
		Recordings: JobConfig{
			CheckpointInterval: v.GetInt("recordings.checkpoint_interval"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".config", "tagfill")
}
