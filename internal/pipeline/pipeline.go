package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/kikiluvv/replaycut/internal/config"
	"github.com/kikiluvv/replaycut/internal/ffmpeg"
	"github.com/kikiluvv/replaycut/internal/library"
	"github.com/kikiluvv/replaycut/internal/probe"
	"github.com/kikiluvv/replaycut/internal/probecache"
	"github.com/kikiluvv/replaycut/internal/scheduler"
	"github.com/kikiluvv/replaycut/pkg/util"
	"github.com/rs/zerolog"
)

// Pipeline orchestrates scan, probe, schedule, extract and concat
type Pipeline struct {
	logger    zerolog.Logger
	config    *config.Config
	prober    probe.Prober
	extractor Extractor
	scan      ScanFunc
	now       func() time.Time
	cache     *probecache.Cache
}

// New creates a new pipeline instance. Collaborators missing from deps are
// built from cfg: an ffmpeg executor, optionally wrapped in the probe cache.
func New(logger zerolog.Logger, cfg *config.Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		config:    cfg,
		prober:    deps.Prober,
		extractor: deps.Extractor,
		scan:      deps.Scan,
		now:       deps.Now,
	}
	if p.scan == nil {
		p.scan = library.Scan
	}
	if p.now == nil {
		p.now = time.Now
	}

	if p.prober == nil || p.extractor == nil {
		ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
			FFmpegPath:   cfg.FFmpeg.FFmpegPath,
			FFprobePath:  cfg.FFmpeg.FFprobePath,
			Threads:      cfg.FFmpeg.Threads,
			Preset:       cfg.FFmpeg.Preset,
			CRF:          cfg.FFmpeg.CRF,
			AudioBitrate: cfg.FFmpeg.AudioBitrate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
		}
		if p.extractor == nil {
			p.extractor = ffmpegExec
		}
		if p.prober == nil {
			p.prober = ffmpegExec
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.Path != "" {
		cache, err := probecache.Open(cfg.Cache.Path, logger)
		if err != nil {
			p.logger.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("probe cache unavailable, probing every file")
		} else {
			p.cache = cache
			p.prober = probecache.NewProber(cache, p.prober)
		}
	}

	return p, nil
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// Cache returns the probe cache, or nil when caching is off.
func (p *Pipeline) Cache() *probecache.Cache {
	return p.cache
}

// Plan schedules dir with the configured target clip duration.
func (p *Pipeline) Plan(ctx context.Context, dir string) (*Result, error) {
	return p.PlanWithTarget(ctx, dir, 0)
}

// PlanWithTarget schedules dir; a zero target uses the configured value and a
// negative one is rejected with clips.ErrInvalidTarget. When
// the plan is empty the result is still returned alongside the error so
// callers can report why every file was skipped.
func (p *Pipeline) PlanWithTarget(ctx context.Context, dir string, target float64) (*Result, error) {
	if dir == "" {
		dir = p.config.InputDir
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: got %v", clips.ErrInvalidTarget, target)
	}
	if target == 0 {
		target = p.config.Scheduler.TargetClipDuration
	}

	sched, err := scheduler.New(p.logger, scheduler.Options{TargetClipDuration: target})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()
	logger.Info().Str("dir", dir).Float64("target", sched.Options().TargetClipDuration).Msg("starting plan")

	// Stage 1: discover recordings
	files, err := p.scan(dir, p.config.Library.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input: %w", err)
	}

	// Stage 2: probe durations
	files = probe.All(ctx, logger, p.prober, files, p.config.Concurrency)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: schedule
	plan := sched.Schedule(files)

	res := &Result{
		RunID:  runID,
		Dir:    dir,
		Target: target,
		Files:  files,
		Plan:   plan,
	}
	return res, plan.Err()
}

// Compile plans dir, extracts every scheduled clip newest first and joins
// them into one file in the output directory. It returns the output path.
func (p *Pipeline) Compile(ctx context.Context, dir string, opts CompileOptions) (string, *CompileReport, error) {
	started := time.Now()
	opts = p.compileDefaults(opts)

	res, err := p.PlanWithTarget(ctx, dir, opts.Target)
	if err != nil {
		return "", nil, err
	}

	logger := p.logger.With().Str("run_id", res.RunID).Logger()
	report := &CompileReport{RunID: res.RunID, Plan: res.Plan}

	workDir := filepath.Join(p.tempRoot(), "replaycut-"+res.RunID)
	if err := util.EnsureDir(workDir); err != nil {
		return "", nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn().Err(err).Str("dir", workDir).Msg("failed to remove work dir")
		}
	}()

	sizes := make(map[string]int64, len(res.Files))
	for _, f := range res.Files {
		sizes[f.Path] = f.Size
	}
	maxSize := p.config.Library.MaxFileSize()

	// Stage 4: extract in emitted order
	var segments []string
	total := len(res.Plan.Clips)
	for i, c := range res.Plan.Clips {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		if maxSize > 0 && sizes[c.Path] > maxSize {
			logger.Warn().
				Str("file", c.Path).
				Int64("size", sizes[c.Path]).
				Int64("limit", maxSize).
				Msg("skipping large file")
			report.SkippedLarge = append(report.SkippedLarge, c.Path)
			continue
		}

		out := filepath.Join(workDir, segmentName(i, c.Path))
		logger.Info().
			Int("clip", i+1).
			Int("of", total).
			Str("file", filepath.Base(c.Path)).
			Str("window", util.FormatSeconds(c.Start)+"-"+util.FormatSeconds(c.End())).
			Msg("extracting clip")

		if err := p.extractor.Extract(ctx, c.Path, c.Start, c.Duration, out); err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			logger.Error().Err(err).Str("file", c.Path).Msg("clip extraction failed, skipping")
			report.Failed = append(report.Failed, c.Path)
			continue
		}

		segments = append(segments, out)
		report.Extracted++
		report.TotalDuration += c.Duration
	}

	if len(segments) == 0 {
		return "", report, ErrNoClipsExtracted
	}

	// Stage 5: optional intro
	if opts.IntroPath != "" {
		introOut := filepath.Join(workDir, "intro.mp4")
		if err := p.extractor.Extract(ctx, opts.IntroPath, 0, opts.IntroDuration, introOut); err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			logger.Warn().Err(err).Str("intro", opts.IntroPath).Msg("intro unavailable, compiling without it")
		} else {
			segments = append([]string{introOut}, segments...)
			report.Intro = true
		}
	}

	// Stage 6: concat
	if err := util.EnsureDir(opts.OutputDir); err != nil {
		return "", nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	output := filepath.Join(opts.OutputDir, util.UniqueName(opts.OutputName, p.now()))

	expected := report.TotalDuration
	if report.Intro {
		expected += opts.IntroDuration
	}
	err = p.extractor.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:   segments,
		Output:   output,
		Expected: expected,
		ProgressFunc: func(pr *ffmpeg.Progress) {
			logger.Debug().Float64("percent", pr.Percentage).Str("speed", pr.Speed).Msg("concat progress")
		},
	})
	if err != nil {
		util.CleanupFiles(output)
		return "", nil, fmt.Errorf("failed to compile output: %w", err)
	}

	report.Output = output
	report.Elapsed = time.Since(started)

	logger.Info().
		Str("output", output).
		Int("clips", report.Extracted).
		Int("failed", len(report.Failed)).
		Int("skipped_large", len(report.SkippedLarge)).
		Str("length", util.FormatSeconds(report.TotalDuration)).
		Dur("elapsed", report.Elapsed).
		Msg("compilation complete")

	return output, report, nil
}

func (p *Pipeline) compileDefaults(opts CompileOptions) CompileOptions {
	if opts.OutputDir == "" {
		opts.OutputDir = p.config.OutputDir
	}
	if opts.OutputName == "" {
		opts.OutputName = p.config.Compile.OutputName
	}
	if opts.IntroPath == "" {
		opts.IntroPath = p.config.Compile.IntroPath
	}
	if opts.IntroDuration <= 0 {
		opts.IntroDuration = p.config.Compile.IntroDuration
	}
	return opts
}

func (p *Pipeline) tempRoot() string {
	if p.config.TempDir != "" {
		return p.config.TempDir
	}
	return os.TempDir()
}

// segmentName keeps emitted order sortable and the source name readable.
func segmentName(i int, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("clip_%03d_%s.mp4", i, base)
}

// IsEmptyPlan reports whether err means there was nothing to compile.
func IsEmptyPlan(err error) bool {
	return errors.Is(err, clips.ErrEmptyInput) || errors.Is(err, clips.ErrNoFilesScheduled)
}
