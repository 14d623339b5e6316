package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
)

// ArtistService provides artist metadata operations for the Last.fm API.
type ArtistService struct {
	client *Client
}

// GetInfo fetches metadata for an artist, including its tags.
//
// Last.fm autocorrects misspelled artist names; the corrected name is
// returned in ArtistInfo.Name.
//
// Example:
//
//	info, err := client.Artist().GetInfo(ctx, "The Beatles")
//	if err != nil {
//	    log.Printf("Failed to get artist info: %v", err)
//	}
//	fmt.Println(strings.Join(info.TagNames(), ", "))
func (s *ArtistService) GetInfo(ctx context.Context, artist string) (*ArtistInfo, error) {
	if artist == "" {
		return nil, fmt.Errorf("lastfm: artist is required")
	}

	params := map[string]string{
		"artist":      artist,
		"autocorrect": "1",
	}

	body, err := s.client.call(ctx, "artist.getInfo", params)
	if err != nil {
		return nil, err
	}

	var resp artistInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse artist info response: %w", err)
	}
	if resp.Artist == nil {
		return nil, fmt.Errorf("%w: artist", ErrUnexpectedResponse)
	}

	return &ArtistInfo{
		Name: resp.Artist.Name,
		MBID: resp.Artist.MBID,
		URL:  resp.Artist.URL,
		Tags: resp.Artist.Tags.Tag,
	}, nil
}
