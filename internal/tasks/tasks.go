package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"tidalsplit/internal/models"
	"tidalsplit/internal/services"
	"tidalsplit/internal/shared"
)

// Default pacing and retry behavior for batched track adds.
const (
	defaultRateLimit = 1.0 // mutating requests per second
	maxAddAttempts   = 3
	defaultRetryWait = 5 * time.Second
)

// Options configures a split run.
type Options struct {
	Segments           int     // Number of output playlists (k)
	Prefix             string  // {prefix} substitution value
	NamingPattern      string  // Pattern for playlist names
	DescriptionPattern string  // Pattern for playlist descriptions
	BatchSize          int     // Tracks per add call; 0 adds each segment in one call
	RateLimit          float64 // Mutating requests per second when batching (default 1)
}

// PlannedSegment is one output playlist before anything is created.
type PlannedSegment struct {
	Segment     models.Segment `json:"segment"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// SplitPlan describes what a run would create, without touching the service.
type SplitPlan struct {
	Source   *models.PlaylistExport `json:"source"`
	Segments []PlannedSegment       `json:"segments"`
}

// SegmentResult records one created playlist.
type SegmentResult struct {
	Playlist    *models.Playlist `json:"playlist"`
	TracksAdded int              `json:"tracks_added"`
}

// SplitRunResult contains all data from a full split operation.
type SplitRunResult struct {
	Source      *models.PlaylistExport `json:"source"`
	Created     []SegmentResult        `json:"created"`
	TotalTracks int                    `json:"total_tracks"`
	TracksAdded int                    `json:"tracks_added"`
}

// Splitter defines the split operations exposed to CLI and UI layers.
type Splitter interface {
	// Plan fetches the source playlist and computes the segments and their
	// resolved names without creating anything.
	Plan(ctx context.Context, sourceID string, opts Options) (*SplitPlan, error)

	// Run performs the full split: fetch, partition, create playlists, add
	// tracks. Progress updates are sent on the channel without blocking.
	Run(ctx context.Context, progress chan<- ProgressUpdate, sourceID string, opts Options) (*SplitRunResult, error)
}

// SplitEngine implements Splitter against a single music service.
type SplitEngine struct {
	service   services.Service
	retryWait time.Duration
}

// NewSplitEngine creates a new SplitEngine backed by the provided service.
func NewSplitEngine(svc services.Service) *SplitEngine {
	return &SplitEngine{
		service:   svc,
		retryWait: defaultRetryWait,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SplitEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *SplitEngine) fetchAndPartition(ctx context.Context, progress chan<- ProgressUpdate, sourceID string, opts Options) (*models.PlaylistExport, []models.Segment, error) {
	if e.service == nil {
		return nil, nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Segments <= 0 {
		return nil, nil, fmt.Errorf("%w: must be at least 1, got %d", shared.ErrInvalidSegmentCount, opts.Segments)
	}

	e.sendProgress(progress, fetchingSourceUpdate())

	export, err := e.service.ExportPlaylist(ctx, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}
	if len(export.Tracks) == 0 {
		return nil, nil, fmt.Errorf("%w: playlist %q has no tracks", shared.ErrInvalidArgument, export.Playlist.Name)
	}

	e.sendProgress(progress, foundPlaylistUpdate(export))

	segments, err := Partition(export.Tracks, opts.Segments)
	if err != nil {
		return nil, nil, err
	}

	e.sendProgress(progress, partitionedUpdate(segments))
	return export, segments, nil
}

// Plan fetches the source playlist and computes the would-be segments.
func (e *SplitEngine) Plan(ctx context.Context, sourceID string, opts Options) (*SplitPlan, error) {
	export, segments, err := e.fetchAndPartition(ctx, nil, sourceID, opts)
	if err != nil {
		return nil, err
	}

	plan := &SplitPlan{Source: export, Segments: make([]PlannedSegment, len(segments))}
	for i, seg := range segments {
		tctx := TemplateContext{
			Prefix:   opts.Prefix,
			Index:    seg.Index,
			Total:    seg.Total,
			Playlist: export.Playlist.Name,
		}
		plan.Segments[i] = PlannedSegment{
			Segment:     seg,
			Name:        SegmentName(opts.NamingPattern, tctx),
			Description: Resolve(opts.DescriptionPattern, tctx),
		}
	}
	return plan, nil
}

// Run performs the full split operation.
//
// Segments are processed in order; a failure aborts the run and returns the
// partial result alongside the error so callers can report what was created.
func (e *SplitEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, sourceID string, opts Options) (*SplitRunResult, error) {
	export, segments, err := e.fetchAndPartition(ctx, progress, sourceID, opts)
	if err != nil {
		return nil, err
	}

	result := &SplitRunResult{
		Source:      export,
		TotalTracks: len(export.Tracks),
		Created:     make([]SegmentResult, 0, len(segments)),
	}

	rl := opts.RateLimit
	if rl <= 0 {
		rl = defaultRateLimit
	}
	var limiter *rate.Limiter
	if opts.BatchSize > 0 {
		limiter = rate.NewLimiter(rate.Limit(rl), 1)
	}

	for _, seg := range segments {
		tctx := TemplateContext{
			Prefix:   opts.Prefix,
			Index:    seg.Index,
			Total:    seg.Total,
			Playlist: export.Playlist.Name,
		}
		name := SegmentName(opts.NamingPattern, tctx)
		description := Resolve(opts.DescriptionPattern, tctx)

		e.sendProgress(progress, creatingPlaylistUpdate(seg.Index, seg.Total, name))

		if err := e.pace(ctx, limiter); err != nil {
			return result, err
		}

		created, err := e.service.CreatePlaylist(ctx, name, description)
		if err != nil {
			return result, fmt.Errorf("segment %d/%d: %w", seg.Index, seg.Total, err)
		}

		added := 0
		for _, batch := range Batches(seg.TrackIDs(), opts.BatchSize) {
			if err := e.pace(ctx, limiter); err != nil {
				return result, err
			}
			if err := e.addWithRetry(ctx, created.ID, batch); err != nil {
				result.Created = append(result.Created, SegmentResult{Playlist: created, TracksAdded: added})
				result.TracksAdded += added
				return result, fmt.Errorf("segment %d/%d (%s): %w", seg.Index, seg.Total, created.Name, err)
			}
			added += len(batch)
			e.sendProgress(progress, addTracksUpdate(seg.Index, seg.Total, added, len(seg.Tracks)))
		}

		result.Created = append(result.Created, SegmentResult{Playlist: created, TracksAdded: added})
		result.TracksAdded += added
		e.sendProgress(progress, segmentDoneUpdate(seg.Index, seg.Total, created, added))
	}

	return result, nil
}

func (e *SplitEngine) pace(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing interrupted: %w", err)
	}
	return nil
}

// addWithRetry attempts an add up to [maxAddAttempts] times.
//
// Only rate-limit responses are retried; anything else fails immediately.
func (e *SplitEngine) addWithRetry(ctx context.Context, playlistID string, trackIDs []string) error {
	var err error
	for attempt := 1; attempt <= maxAddAttempts; attempt++ {
		err = e.service.AddTracks(ctx, playlistID, trackIDs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrRateLimited) || attempt == maxAddAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.retryWait):
		}
	}
	return err
}
