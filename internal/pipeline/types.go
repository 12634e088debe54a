package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/kikiluvv/replaycut/internal/ffmpeg"
	"github.com/kikiluvv/replaycut/internal/probe"
	"github.com/kikiluvv/replaycut/internal/scheduler"
)

var ErrNoClipsExtracted = errors.New("no clips were extracted")

// Extractor cuts and joins media. *ffmpeg.Executor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, input string, start, duration float64, output string) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
}

// ScanFunc lists the recordings in dir.
type ScanFunc func(dir string, exts []string) ([]clips.SourceFile, error)

// Deps overrides the collaborators New would otherwise build from config.
type Deps struct {
	Prober    probe.Prober
	Extractor Extractor
	Scan      ScanFunc
	Now       func() time.Time
}

// Result is a scheduling pass over one directory.
type Result struct {
	RunID  string             `json:"run_id"`
	Dir    string             `json:"dir"`
	Target float64            `json:"target_clip_duration"`
	Files  []clips.SourceFile `json:"-"`
	Plan   scheduler.Plan     `json:"-"`
}

// CompileOptions configures Compile. Zero values fall back to config.
type CompileOptions struct {
	OutputDir     string
	OutputName    string
	IntroPath     string
	IntroDuration float64
	Target        float64
}

// CompileReport describes what a Compile run produced.
type CompileReport struct {
	RunID         string         `json:"run_id"`
	Output        string         `json:"output"`
	Plan          scheduler.Plan `json:"-"`
	Extracted     int            `json:"extracted"`
	Failed        []string       `json:"failed,omitempty"`
	SkippedLarge  []string       `json:"skipped_large,omitempty"`
	Intro         bool           `json:"intro"`
	TotalDuration float64        `json:"total_duration"` // seconds of scheduled footage in the output, intro excluded
	Elapsed       time.Duration  `json:"elapsed"`
}
