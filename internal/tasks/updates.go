package tasks

import (
	"fmt"

	"tidalsplit/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	PartitionTracks
	CreatePlaylist
	AddTracks
	SegmentDone
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case PartitionTracks:
		return "partition"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case SegmentDone:
		return "segment_done"
	default:
		return ""
	}
}

func fetchingSourceUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: "Fetching source playlist from Tidal...",
	}
}

func foundPlaylistUpdate(export *models.PlaylistExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", export.Playlist.Name, len(export.Tracks)),
		Data:    export,
	}
}

func partitionedUpdate(segments []models.Segment) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PartitionTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Split into %d segments", len(segments)),
		Data:    segments,
	}
}

func creatingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Creating playlist '%s'...", step, total, name),
	}
}

func addTracksUpdate(step, total, added, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added %d/%d tracks", step, total, added, trackCount),
	}
}

func segmentDoneUpdate(step, total int, pl *models.Playlist, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SegmentDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, pl.Name, trackCount),
		Data:    pl,
	}
}
