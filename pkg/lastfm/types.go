package lastfm

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrUnexpectedResponse is returned when a successful response lacks the
// object the method is documented to return.
var ErrUnexpectedResponse = errors.New("lastfm: response missing expected fields")

// Tag is a user-applied tag on an artist or track.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ArtistInfo represents the response from artist.getInfo.
type ArtistInfo struct {
	Name string
	MBID string
	URL  string
	Tags []Tag
}

// TagNames returns the artist's tag names in API order.
func (a *ArtistInfo) TagNames() []string {
	return tagNames(a.Tags)
}

// TrackInfo represents the response from track.getInfo.
type TrackInfo struct {
	Name    string
	MBID    string
	Artist  string
	URL     string
	TopTags []Tag
}

// TagNames returns the track's top tag names in API order.
func (t *TrackInfo) TagNames() []string {
	return tagNames(t.TopTags)
}

func tagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag.Name != "" {
			names = append(names, tag.Name)
		}
	}
	return names
}

// tagList decodes the "tag" member, which Last.fm renders as an array, a
// single object when there is exactly one tag, or omits entirely.
type tagList []Tag

func (l *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
	case '{':
		var one Tag
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = tagList{one}
		return nil
	default:
		*l = nil
		return nil
	}

	var many []Tag
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// tagContainer decodes {"tag": ...}. Entities without tags sometimes carry
// an empty string instead of an object.
type tagContainer struct {
	Tag tagList `json:"tag"`
}

func (c *tagContainer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		c.Tag = nil
		return nil
	}

	var raw struct {
		Tag tagList `json:"tag"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Tag = raw.Tag
	return nil
}

// artistInfoResponse represents the JSON response from artist.getInfo.
type artistInfoResponse struct {
	Artist *struct {
		Name string       `json:"name"`
		MBID string       `json:"mbid"`
		URL  string       `json:"url"`
		Tags tagContainer `json:"tags"`
	} `json:"artist"`
}

// trackInfoResponse represents the JSON response from track.getInfo.
type trackInfoResponse struct {
	Track *struct {
		Name   string `json:"name"`
		MBID   string `json:"mbid"`
		URL    string `json:"url"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		TopTags tagContainer `json:"toptags"`
	} `json:"track"`
}
