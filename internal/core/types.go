package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Artist is the persisted unit of the catalog, keyed by integer id.
// Ids are assigned once, grow monotonically and are never reused.
type Artist struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Video  *Video `json:"video"`
}

// ResolvedVideo is canonical video metadata produced by the resolver.
// Duration is an ISO-8601 duration string as returned by the metadata service.
type ResolvedVideo struct {
	YouTubeID string `json:"youtubeId"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

// Video is the single video attached to an artist. It is a tagged variant:
// exactly one of URL (a raw YouTube link, not yet resolved) or Resolved is
// set. Assigning a new video always replaces the old one wholesale.
type Video struct {
	URL      string
	Resolved *ResolvedVideo
}

// UnresolvedVideo wraps a raw YouTube URL.
func UnresolvedVideo(url string) *Video {
	return &Video{URL: url}
}

// IsResolved reports whether the video carries structured metadata.
func (v *Video) IsResolved() bool {
	return v != nil && v.Resolved != nil
}

// Ref returns the playable reference: the canonical video id when resolved,
// the raw URL otherwise.
func (v *Video) Ref() string {
	if v == nil {
		return ""
	}
	if v.Resolved != nil {
		return v.Resolved.YouTubeID
	}
	return v.URL
}

// MarshalJSON writes the variant back in its stored shape: a JSON string for
// an unresolved URL, an object for resolved metadata. Records therefore
// round-trip unchanged through load and save.
func (v *Video) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	if v.Resolved != nil {
		return json.Marshal(v.Resolved)
	}
	return json.Marshal(v.URL)
}

// UnmarshalJSON accepts the two shapes found in stored records: a plain URL
// string or a ResolvedVideo object. JSON null yields the zero value; callers
// treat a nil *Video as "no video".
func (v *Video) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Video{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var url string
		if err := json.Unmarshal(trimmed, &url); err != nil {
			return fmt.Errorf("failed to decode video URL: %w", err)
		}
		*v = Video{URL: url}
		return nil
	case '{':
		var resolved ResolvedVideo
		if err := json.Unmarshal(trimmed, &resolved); err != nil {
			return fmt.Errorf("failed to decode video metadata: %w", err)
		}
		*v = Video{Resolved: &resolved}
		return nil
	default:
		return fmt.Errorf("video must be a URL string or metadata object")
	}
}
