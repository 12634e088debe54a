package scheduler

import (
	"github.com/kikiluvv/replaycut/internal/clips"
)

// Summary totals a plan. It is informational only.
type Summary struct {
	InputFiles        int     `json:"input_files"`
	ScheduledClips    int     `json:"scheduled_clips"`
	ScheduledDuration float64 `json:"scheduled_duration"`
	// NaiveDuration is what the reel would last had every probed file
	// contributed its full trailing window with no overlap correction.
	NaiveDuration  float64 `json:"naive_duration"`
	SavedDuration  float64 `json:"saved_duration"`
	SavingsPercent float64 `json:"savings_percent"`
}

func (s *Summary) fill(files []clips.SourceFile, scheduled []clips.ScheduledClip, target float64) {
	s.InputFiles = len(files)
	s.ScheduledClips = len(scheduled)

	s.NaiveDuration = 0
	for _, f := range files {
		if f.HasDuration() {
			s.NaiveDuration += clips.RequestedWindow(f.Duration, target).Duration
		}
	}

	s.ScheduledDuration = 0
	for _, c := range scheduled {
		s.ScheduledDuration += c.Duration
	}

	s.SavedDuration = s.NaiveDuration - s.ScheduledDuration
	s.SavingsPercent = 0
	if s.NaiveDuration > 0 {
		s.SavingsPercent = s.SavedDuration / s.NaiveDuration * 100
	}
}
