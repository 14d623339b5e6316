// Package musicbrainz provides a minimal client for the MusicBrainz web
// service (WS/2).
//
// Only recording search is implemented. MusicBrainz requires every client
// to send a meaningful User-Agent and to stay under one request per second;
// the client sends the User-Agent, and callers are expected to throttle.
//
//	client, err := musicbrainz.NewClient(musicbrainz.Config{
//	    UserAgent: "tagfill/1.0 (you@example.com)",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	recs, err := client.Recordings().Search(ctx, "Yesterday", "The Beatles")
//
// Throttled (503, 429) and 5xx responses are retried with exponential
// backoff. Other failures are returned as *HTTPError.
package musicbrainz
