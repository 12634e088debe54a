// Package probe fills in the playable duration of source files by asking a
// Prober, fanning the work out over a bounded worker pool.
package probe

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned by a Prober when a file has no usable duration.
var ErrUnavailable = clips.ErrProbeUnavailable

// Prober reports the playable length of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (float64, error)

func (f ProberFunc) Duration(ctx context.Context, path string) (float64, error) {
	return f(ctx, path)
}

// All probes every file and returns a copy of files with Duration set. The
// output keeps the input order. A failed probe leaves Duration at 0 so the
// scheduler skips that file; cancelling ctx stops remaining probes the same
// way.
func All(ctx context.Context, logger zerolog.Logger, prober Prober, files []clips.SourceFile, workers int) []clips.SourceFile {
	out := make([]clips.SourceFile, len(files))
	copy(out, files)
	if len(out) == 0 {
		return out
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(out) {
		workers = len(out)
	}

	logger = logger.With().Str("component", "probe").Logger()
	started := time.Now()

	jobs := make(chan int)
	var failed int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				f := &out[idx]
				if ctx.Err() != nil {
					f.Duration = 0
					continue
				}

				dur, err := prober.Duration(ctx, f.Path)
				if err != nil || dur <= 0 {
					f.Duration = 0
					mu.Lock()
					failed++
					mu.Unlock()
					logProbeFailure(logger, f.Path, err)
					continue
				}
				f.Duration = dur
				logger.Debug().Str("file", f.Path).Float64("duration", dur).Msg("probed")
			}
		}()
	}

	for i := range out {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	logger.Info().
		Int("files", len(out)).
		Int("failed", failed).
		Int("workers", workers).
		Dur("elapsed", time.Since(started)).
		Msg("probe complete")

	return out
}

func logProbeFailure(logger zerolog.Logger, path string, err error) {
	switch {
	case err == nil:
		logger.Warn().Str("file", path).Msg("probe returned no duration")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug().Str("file", path).Err(err).Msg("probe cancelled")
	case errors.Is(err, ErrUnavailable):
		logger.Warn().Str("file", path).Err(err).Msg("duration unavailable")
	default:
		logger.Error().Str("file", path).Err(err).Msg("probe failed")
	}
}
