package models

// Playlist represents a Tidal playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URL         string `json:"url,omitempty"`
}

// Track represents a single track reference within a playlist.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // Duration in seconds
	ISRC     string `json:"isrc,omitempty"`
}

// User represents an authenticated user's session.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// PlaylistExport is a playlist together with its full ordered track list.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// Segment is one contiguous chunk of a source playlist's tracks.
//
// Index is 1-based; Total is the number of segments in the split.
type Segment struct {
	Index  int     `json:"index"`
	Total  int     `json:"total"`
	Tracks []Track `json:"tracks"`
}

// TrackIDs returns the ids of the segment's tracks in order.
func (s Segment) TrackIDs() []string {
	ids := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		ids[i] = t.ID
	}
	return ids
}
