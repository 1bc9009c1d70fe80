// Package models defines the domain types shared across the application.
//
// Playlists and tracks mirror what the Tidal API returns, stripped to the
// fields the splitter needs. A [Segment] is one contiguous output chunk of
// a source playlist, computed once per run and never persisted.
package models
