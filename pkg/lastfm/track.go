package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
)

// TrackService provides track metadata operations for the Last.fm API.
type TrackService struct {
	client *Client
}

// GetInfo fetches metadata for a track, including its top tags.
//
// Example:
//
//	info, err := client.Track().GetInfo(ctx, "The Beatles", "Yesterday")
//	if err != nil {
//	    log.Printf("Failed to get track info: %v", err)
//	}
//	fmt.Println(strings.Join(info.TagNames(), ", "))
func (s *TrackService) GetInfo(ctx context.Context, artist, track string) (*TrackInfo, error) {
	if artist == "" || track == "" {
		return nil, fmt.Errorf("lastfm: artist and track are required")
	}

	params := map[string]string{
		"artist":      artist,
		"track":       track,
		"autocorrect": "1",
	}

	body, err := s.client.call(ctx, "track.getInfo", params)
	if err != nil {
		return nil, err
	}

	var resp trackInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse track info response: %w", err)
	}
	if resp.Track == nil {
		return nil, fmt.Errorf("%w: track", ErrUnexpectedResponse)
	}

	return &TrackInfo{
		Name:    resp.Track.Name,
		MBID:    resp.Track.MBID,
		Artist:  resp.Track.Artist.Name,
		URL:     resp.Track.URL,
		TopTags: resp.Track.TopTags.Tag,
	}, nil
}
