// Package scheduler picks a non-overlapping trailing segment from each
// instant-replay recording so the segments can be joined into one reel.
//
// Replay recorders write a file only after the buffer flushes, so creation
// time marks the end of the footage and consecutive files can cover the same
// real-world moments. The scheduler rebuilds each file's footage interval,
// walks the files oldest first, and trims or drops any window that would
// repeat footage already taken from the previous file.
package scheduler

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/rs/zerolog"
)

// Options is the scheduler's only configuration.
type Options struct {
	TargetClipDuration float64 `json:"target_clip_duration" yaml:"target_clip_duration"`
}

// Validate rejects a non-positive or non-finite target.
func (o Options) Validate() error {
	t := o.TargetClipDuration
	if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: got %v", clips.ErrInvalidTarget, t)
	}
	return nil
}

// Skip records a file left out of the plan.
type Skip struct {
	Path   string `json:"path"`
	Reason error  `json:"-"`
}

// Plan is the result of one scheduling run.
type Plan struct {
	Clips   []clips.ScheduledClip // newest first
	Skipped []Skip                // in chronological processing order
	Summary Summary
}

// Err reports run-level conditions the caller may treat as fatal.
func (p Plan) Err() error {
	if p.Summary.InputFiles == 0 {
		return clips.ErrEmptyInput
	}
	if len(p.Clips) == 0 {
		return clips.ErrNoFilesScheduled
	}
	return nil
}

// Scheduler is immutable and safe for concurrent use; every Schedule call
// owns its own State.
type Scheduler struct {
	logger zerolog.Logger
	opts   Options
}

// New creates a scheduler, rejecting malformed options.
func New(logger zerolog.Logger, opts Options) (*Scheduler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		logger: logger.With().Str("component", "scheduler").Logger(),
		opts:   opts,
	}, nil
}

// Options returns the scheduler configuration
func (s *Scheduler) Options() Options {
	return s.opts
}

// Schedule orders files by timestamp, resolves each against the clips
// accepted before it and returns the accepted clips newest first.
func (s *Scheduler) Schedule(files []clips.SourceFile) Plan {
	target := s.opts.TargetClipDuration

	sorted := make([]clips.SourceFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp() < sorted[j].Timestamp()
	})

	plan := Plan{Clips: make([]clips.ScheduledClip, 0, len(sorted))}
	var st State
	for _, f := range sorted {
		var d Decision
		d, st = Resolve(st, f, target)
		s.logDecision(f, d)

		if d.Outcome == Dropped {
			plan.Skipped = append(plan.Skipped, Skip{Path: f.Path, Reason: d.Err})
			continue
		}
		plan.Clips = append(plan.Clips, d.Clip)
	}

	for i, j := 0, len(plan.Clips)-1; i < j; i, j = i+1, j-1 {
		plan.Clips[i], plan.Clips[j] = plan.Clips[j], plan.Clips[i]
	}

	plan.Summary.fill(sorted, plan.Clips, target)

	s.logger.Info().
		Int("files", plan.Summary.InputFiles).
		Int("clips", plan.Summary.ScheduledClips).
		Float64("scheduled_s", plan.Summary.ScheduledDuration).
		Float64("naive_s", plan.Summary.NaiveDuration).
		Float64("saved_s", plan.Summary.SavedDuration).
		Float64("savings_pct", plan.Summary.SavingsPercent).
		Msg("smart clip schedule complete")

	return plan
}

func (s *Scheduler) logDecision(f clips.SourceFile, d Decision) {
	name := filepath.Base(f.Path)

	switch {
	case errors.Is(d.Err, clips.ErrProbeUnavailable):
		s.logger.Warn().Str("file", name).Msg("skipping file, cannot determine duration")
	case d.Outcome == Dropped:
		s.logger.Warn().
			Str("file", name).
			Float64("overlap_s", -d.Gap).
			Err(d.Err).
			Msg("skipping file")
	default:
		s.logger.Debug().
			Str("file", name).
			Str("outcome", d.Outcome.String()).
			Float64("gap_s", d.Gap).
			Float64("start", d.Clip.Start).
			Float64("duration", d.Clip.Duration).
			Float64("footage_start", d.Clip.Footage.Start).
			Float64("footage_end", d.Clip.Footage.End).
			Msg("clip scheduled")
	}
}
