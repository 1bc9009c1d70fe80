package tasks

import (
	"strconv"
	"strings"
)

// Tidal rejects playlist names past this length.
const maxPlaylistNameLen = 50

// TemplateContext holds the substitution values for naming and description
// patterns. Recognized placeholders: {prefix}, {index}, {total}, {playlist}.
type TemplateContext struct {
	Prefix   string
	Index    int
	Total    int
	Playlist string
}

// Resolve substitutes the recognized placeholders in pattern.
//
// Unrecognized placeholders pass through unchanged, so literal braces in a
// pattern survive resolution.
func Resolve(pattern string, ctx TemplateContext) string {
	r := strings.NewReplacer(
		"{prefix}", ctx.Prefix,
		"{index}", strconv.Itoa(ctx.Index),
		"{total}", strconv.Itoa(ctx.Total),
		"{playlist}", ctx.Playlist,
	)
	return r.Replace(pattern)
}

// SegmentName resolves the naming pattern and enforces the provider's name
// length limit. Over-long names fall back to a shortened fixed form with the
// playlist name truncated.
func SegmentName(pattern string, ctx TemplateContext) string {
	name := Resolve(pattern, ctx)
	if len([]rune(name)) <= maxPlaylistNameLen {
		return name
	}

	playlist := []rune(ctx.Playlist)
	if len(playlist) > 40 {
		playlist = playlist[:40]
	}
	return ctx.Prefix + " " + strconv.Itoa(ctx.Index) + " - " + string(playlist) + "..."
}
