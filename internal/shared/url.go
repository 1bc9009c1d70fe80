package shared

import (
	"fmt"
	"regexp"
)

// Tidal links playlists as https://listen.tidal.com/playlist/<uuid> or
// https://tidal.com/browse/playlists/<uuid> depending on the client.
var playlistURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`playlist/([a-zA-Z0-9-]+)`),
	regexp.MustCompile(`playlists/([a-zA-Z0-9-]+)`),
}

// ExtractPlaylistID extracts the playlist ID from a Tidal playlist URL.
//
// A bare playlist UUID is accepted as-is.
func ExtractPlaylistID(url string) (string, error) {
	for _, pattern := range playlistURLPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}

	if isPlaylistUUID(url) {
		return url, nil
	}

	return "", fmt.Errorf("%w: expected https://listen.tidal.com/playlist/<id>, got %q", ErrInvalidPlaylistURL, url)
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func isPlaylistUUID(s string) bool {
	return uuidPattern.MatchString(s)
}
