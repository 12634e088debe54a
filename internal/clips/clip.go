package clips

import (
	"math"
)

// SourceFile is one recording discovered on disk. All times are seconds.
type SourceFile struct {
	Path     string
	Created  float64 // birth time since epoch, 0 when the platform can't tell
	Modified float64 // mtime since epoch
	Size     int64
	Duration float64 // total playable length; <= 0 means unknown
}

// Timestamp is the moment the file became available: creation time when the
// platform reports one, modification time otherwise.
func (f SourceFile) Timestamp() float64 {
	if f.Created > 0 {
		return f.Created
	}
	return f.Modified
}

// HasDuration reports whether the probe produced a usable duration.
func (f SourceFile) HasDuration() bool {
	return f.Duration > 0 && !math.IsInf(f.Duration, 0) && !math.IsNaN(f.Duration)
}

// Footage is the real-world wall-clock span [Start, End) a file's content covers.
type Footage struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns End - Start
func (fo Footage) Length() float64 {
	return fo.End - fo.Start
}

// Reconstruct derives the footage interval of a retroactively captured file.
// The file materializes when the replay buffer flushes, so its timestamp marks
// the end of the footage and the start is found by subtracting the duration.
func Reconstruct(f SourceFile) (Footage, error) {
	if !f.HasDuration() {
		return Footage{}, ErrProbeUnavailable
	}
	end := f.Timestamp()
	return Footage{Start: end - f.Duration, End: end}, nil
}

// Window is an extraction window relative to the start of a file.
type Window struct {
	Start    float64
	Duration float64
}

// End returns Start + Duration
func (w Window) End() float64 {
	return w.Start + w.Duration
}

// RequestedWindow returns the trailing slice of length target, or the whole
// file when it is shorter than target.
func RequestedWindow(total, target float64) Window {
	start := math.Max(0, total-target)
	return Window{Start: start, Duration: total - start}
}

// ScheduledClip is a non-overlapping slice of one source file, ready for extraction.
type ScheduledClip struct {
	Path          string  `json:"path"`
	Start         float64 `json:"start"`
	Duration      float64 `json:"duration"`
	Created       float64 `json:"created"`
	TotalDuration float64 `json:"total_duration"`
	Footage       Footage `json:"footage"`
}

// End returns the clip's end offset within the source file
func (c ScheduledClip) End() float64 {
	return c.Start + c.Duration
}
