// Package ui implements the interactive terminal interface for splitting a
// playlist: preview the planned segments, confirm, watch progress, and see
// the created playlists. Built on bubbletea with the engine running in a
// goroutine and progress consumed from its channel.
package ui
