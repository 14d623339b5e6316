// Package lastfm provides a client for the Last.fm API 2.0.
//
// This package implements the read-only metadata methods of the Last.fm
// API. Only an API key is needed; no session or signature is involved.
//
// # Getting Started
//
// Create a client with your API key:
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Artist and Track Metadata
//
//	artist, err := client.Artist().GetInfo(ctx, "The Beatles")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(artist.TagNames()) // [classic rock rock british 60s ...]
//
//	track, err := client.Track().GetInfo(ctx, "The Beatles", "Yesterday")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(track.TagNames())
//
// # Error Handling
//
// The package provides structured errors with retry information:
//
//	_, err := client.Artist().GetInfo(ctx, name)
//	if errors.Is(err, lastfm.ErrNotFound) {
//	    // Last.fm does not know this artist
//	}
//	var lastfmErr *lastfm.Error
//	if errors.As(err, &lastfmErr) && lastfmErr.Temporary() {
//	    // Already retried; back off further
//	}
//
// Temporary API errors (service offline, rate limit exceeded), HTTP 5xx
// responses and network errors are retried with exponential backoff, up to
// three attempts per call.
//
// # Context Support
//
// All API methods accept a context.Context for cancellation and timeouts:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	info, err := client.Artist().GetInfo(ctx, "Cher")
//
// # API Coverage
//
// Currently implemented:
//   - artist.getInfo
//   - track.getInfo
//
// # Last.fm API Documentation
//
// For more information about the Last.fm API:
// https://www.last.fm/api
package lastfm
