package tasks

import (
	"fmt"

	"tidalsplit/internal/models"
	"tidalsplit/internal/shared"
)

// Partition splits tracks into count contiguous segments.
//
// Segments are balanced: the first len(tracks) mod count segments hold one
// extra track, so sizes differ by at most one and concatenating the segments
// reproduces the input order exactly. Counts outside 1..len(tracks) are
// rejected rather than clamped.
func Partition(tracks []models.Track, count int) ([]models.Segment, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: must be at least 1, got %d", shared.ErrInvalidSegmentCount, count)
	}
	if count > len(tracks) {
		return nil, fmt.Errorf("%w: %d segments requested but playlist has only %d tracks",
			shared.ErrInvalidSegmentCount, count, len(tracks))
	}

	base := len(tracks) / count
	remainder := len(tracks) % count

	segments := make([]models.Segment, count)
	start := 0
	for i := 0; i < count; i++ {
		size := base
		if i < remainder {
			size++
		}
		segments[i] = models.Segment{
			Index:  i + 1,
			Total:  count,
			Tracks: tracks[start : start+size],
		}
		start += size
	}

	return segments, nil
}

// Batches splits ids into chunks of at most size elements, preserving order.
//
// A size of zero or less yields a single batch.
func Batches(ids []string, size int) [][]string {
	if size <= 0 || size >= len(ids) {
		if len(ids) == 0 {
			return nil
		}
		return [][]string{ids}
	}

	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
