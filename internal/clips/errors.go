package clips

import "errors"

// Per-file conditions. The file is left out of the plan and the run goes on.
var (
	ErrProbeUnavailable    = errors.New("duration unavailable")
	ErrFullyOverlapped     = errors.New("footage fully covered by previous clip")
	ErrNegligibleRemainder = errors.New("remaining footage too short")
)

// Run-level conditions. The scheduler reports them; callers decide whether they are fatal.
var (
	ErrEmptyInput       = errors.New("no input files")
	ErrNoFilesScheduled = errors.New("no files could be scheduled")
)

// ErrInvalidTarget is returned for a non-positive or non-finite clip duration.
var ErrInvalidTarget = errors.New("target clip duration must be a positive number")
