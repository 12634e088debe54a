package scheduler

import (
	"math"

	"github.com/kikiluvv/replaycut/internal/clips"
)

// MinRemainder is the shortest post-overlap clip worth extracting, in seconds.
// Clips at or below it are dropped. Fixed, not configurable.
const MinRemainder = 0.5

// State is the accumulator threaded through one scheduling run: the footage
// end of the most recently accepted clip. The zero value means no clip has
// been accepted yet, and the first accepted clip is never checked for overlap.
type State struct {
	lastEnd float64
	started bool
}

// LastFootageEnd returns the real-world end of the last accepted clip.
func (s State) LastFootageEnd() (float64, bool) {
	return s.lastEnd, s.started
}

func (s State) advance(end float64) State {
	return State{lastEnd: end, started: true}
}

// Outcome classifies what Resolve did with a file.
type Outcome int

const (
	Dropped Outcome = iota
	Accepted
	Adjusted
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Adjusted:
		return "adjusted"
	default:
		return "dropped"
	}
}

// Decision is the result of resolving one file against the run state.
type Decision struct {
	Outcome   Outcome
	Clip      clips.ScheduledClip // zero when dropped
	Requested clips.Window
	Gap       float64 // clip start minus previous clip end; 0 for the first clip
	Err       error   // why the file was dropped
}

// Resolve computes the extraction window for f given the run state and
// returns the next state. It is pure: the same inputs always give the same
// decision, and a dropped file leaves the state unchanged.
func Resolve(st State, f clips.SourceFile, target float64) (Decision, State) {
	footage, err := clips.Reconstruct(f)
	if err != nil {
		return Decision{Outcome: Dropped, Err: err}, st
	}

	req := clips.RequestedWindow(f.Duration, target)
	d := Decision{Requested: req}

	clipStart := footage.Start + req.Start
	clipEnd := clipStart + req.Duration

	prior, ok := st.LastFootageEnd()
	if !ok {
		d.Outcome = Accepted
		d.Clip = newClip(f, footage, req)
		return d, st.advance(clipEnd)
	}

	d.Gap = clipStart - prior
	if d.Gap >= 0 {
		d.Outcome = Accepted
		d.Clip = newClip(f, footage, req)
		return d, st.advance(clipEnd)
	}

	overlap := math.Abs(d.Gap)
	newStart := req.Start + overlap
	if newStart >= f.Duration {
		d.Err = clips.ErrFullyOverlapped
		return d, st
	}

	remaining := f.Duration - newStart
	newDuration := math.Min(target-overlap, remaining)
	if newDuration <= MinRemainder {
		d.Err = clips.ErrNegligibleRemainder
		return d, st
	}

	win := clips.Window{Start: newStart, Duration: newDuration}
	d.Outcome = Adjusted
	d.Clip = newClip(f, footage, win)
	return d, st.advance(footage.Start + win.End())
}

func newClip(f clips.SourceFile, footage clips.Footage, w clips.Window) clips.ScheduledClip {
	return clips.ScheduledClip{
		Path:          f.Path,
		Start:         w.Start,
		Duration:      w.Duration,
		Created:       f.Timestamp(),
		TotalDuration: f.Duration,
		Footage: clips.Footage{
			Start: footage.Start + w.Start,
			End:   footage.Start + w.End(),
		},
	}
}
