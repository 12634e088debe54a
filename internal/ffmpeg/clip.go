package ffmpeg

import (
	"context"
	"errors"
	"fmt"

	"github.com/kikiluvv/replaycut/pkg/util"
)

var (
	ErrStartPastEnd  = errors.New("start time exceeds video duration")
	ErrEmptySegment  = errors.New("no content to extract")
	ErrMissingOutput = errors.New("output path is required")
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        float64 // seconds from the start of the input
	Duration     float64
	Output       string
	CopyCodec    bool // If true, use -c copy for fast extraction
	ProgressFunc ProgressFunc
}

// Extract cuts [start, start+duration) from input into output. It re-probes
// the input and clamps the window to its real length instead of trusting the
// caller's numbers.
func (e *Executor) Extract(ctx context.Context, input string, start, duration float64, output string) error {
	return e.ExtractClip(ctx, input, ClipOptions{Start: start, Duration: duration, Output: output})
}

// ExtractClip cuts a segment from a video
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	if opts.Output == "" {
		return ErrMissingOutput
	}

	info, err := e.ProbeVideo(ctx, input)
	if err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	start, duration, err := clampWindow(opts.Start, opts.Duration, info.Duration)
	if err != nil {
		return fmt.Errorf("clip extraction failed for %s: %w", input, err)
	}
	if start != opts.Start || duration != opts.Duration {
		e.logger.Warn().
			Str("input", input).
			Float64("requested_start", opts.Start).
			Float64("requested_duration", opts.Duration).
			Float64("start", start).
			Float64("duration", duration).
			Msg("clamped extraction window to file length")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Float64("start", start).
		Float64("duration", duration).
		Bool("has_audio", info.HasAudio).
		Msg("extracting clip")

	runOpts := RunOptions{
		Args:            e.clipArgs(input, start, duration, info.HasAudio, opts),
		Expected:        duration,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}

// clampWindow fits a requested window into a file of length total.
func clampWindow(start, duration, total float64) (float64, float64, error) {
	if total <= 0 {
		return 0, 0, fmt.Errorf("%w: unknown duration", ErrEmptySegment)
	}
	if start < 0 {
		start = 0
	}
	if start >= total {
		return 0, 0, fmt.Errorf("%w: start %.3fs, length %.3fs", ErrStartPastEnd, start, total)
	}
	if start+duration > total {
		duration = total - start
	}
	if duration <= 0 {
		return 0, 0, fmt.Errorf("%w: duration would be %.3fs", ErrEmptySegment, duration)
	}
	return start, duration, nil
}

// clipArgs seeks before -i for speed and, when the source has no audio,
// muxes a silent track so later concatenation sees uniform streams.
func (e *Executor) clipArgs(input string, start, duration float64, hasAudio bool, opts ClipOptions) []string {
	args := []string{
		"-ss", util.FormatSeconds(start),
		"-i", input,
	}
	if !hasAudio {
		args = append(args, "-f", "lavfi", "-i", silentAudioSource)
	}
	args = append(args, "-t", util.FormatSeconds(duration))

	if !hasAudio {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0")
	}

	if opts.CopyCodec && hasAudio {
		args = append(args, "-c", "copy")
	} else {
		args = append(args,
			"-c:v", DefaultVideoCodec,
			"-preset", e.opts.Preset,
			"-crf", fmt.Sprintf("%d", e.opts.CRF),
			"-c:a", DefaultAudioCodec,
			"-b:a", e.opts.AudioBitrate,
		)
	}

	if !hasAudio {
		args = append(args, "-shortest")
	}

	return append(args, opts.Output)
}
