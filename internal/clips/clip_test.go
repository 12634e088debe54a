package clips

import (
	"errors"
	"math"
	"testing"
)

func TestTimestampFallsBackToModified(t *testing.T) {
	f := SourceFile{Created: 0, Modified: 1000}
	if got := f.Timestamp(); got != 1000 {
		t.Errorf("Timestamp() = %v, want 1000", got)
	}

	f.Created = 990
	if got := f.Timestamp(); got != 990 {
		t.Errorf("Timestamp() = %v, want 990", got)
	}
}

func TestReconstruct(t *testing.T) {
	f := SourceFile{Path: "a.mp4", Created: 1_700_000_000.25, Duration: 60.5}

	fo, err := Reconstruct(f)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if fo.End != f.Created {
		t.Errorf("End = %v, want %v", fo.End, f.Created)
	}
	if fo.Length() != f.Duration {
		t.Errorf("Length() = %v, want exactly %v", fo.Length(), f.Duration)
	}
}

func TestReconstructUnavailable(t *testing.T) {
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Reconstruct(SourceFile{Created: 100, Duration: d})
		if !errors.Is(err, ErrProbeUnavailable) {
			t.Errorf("Reconstruct(duration=%v) err = %v, want ErrProbeUnavailable", d, err)
		}
	}
}

func TestRequestedWindow(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		target       float64
		wantStart    float64
		wantDuration float64
	}{
		{"longer than target", 60, 15, 45, 15},
		{"exactly target", 15, 15, 0, 15},
		{"shorter than target", 8.5, 15, 0, 8.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := RequestedWindow(tt.total, tt.target)
			if w.Start != tt.wantStart || w.Duration != tt.wantDuration {
				t.Errorf("RequestedWindow(%v, %v) = %+v, want start=%v duration=%v",
					tt.total, tt.target, w, tt.wantStart, tt.wantDuration)
			}
			if w.End() != tt.total {
				t.Errorf("window end = %v, want %v", w.End(), tt.total)
			}
		})
	}
}
