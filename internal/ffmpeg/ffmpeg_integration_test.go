package ffmpeg_test

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/kikiluvv/replaycut/internal/ffmpeg"
	"github.com/rs/zerolog"
)

// local helper (cannot use unexported ones from ffmpeg package)
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// makeTestVideo renders a short synthetic recording with lavfi sources.
func makeTestVideo(t *testing.T, dir, name string, seconds int, withAudio bool) string {
	t.Helper()

	out := filepath.Join(dir, name)
	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=30"}
	if withAudio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:sample_rate=44100")
	}
	args = append(args, "-t", strconv.Itoa(seconds),
		"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p")
	if withAudio {
		args = append(args, "-c:a", "aac")
	}
	args = append(args, out)

	if output, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Skipf("could not render test video: %v\n%s", err, output)
	}
	return out
}

func newExecutor(t *testing.T) *ffmpeg.Executor {
	t.Helper()
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).With().Str("test", "integration_ffmpeg").Logger()

	ex, err := ffmpeg.New(logger, ffmpeg.Options{Preset: "ultrafast"})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return ex
}

func TestIntegration_ExtractAndConcat(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	withAudio := makeTestVideo(t, dir, "with_audio.mp4", 4, true)
	silent := makeTestVideo(t, dir, "silent.mp4", 3, false)

	ex := newExecutor(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dur, err := ex.Duration(ctx, withAudio)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if math.Abs(dur-4) > 0.2 {
		t.Errorf("duration = %.3f, want ~4", dur)
	}

	clipA := filepath.Join(dir, "a.mp4")
	if err := ex.Extract(ctx, withAudio, 2, 2, clipA); err != nil {
		t.Fatalf("Extract with audio failed: %v", err)
	}

	// window overruns the file and is clamped; a silent track is added
	clipB := filepath.Join(dir, "b.mp4")
	if err := ex.Extract(ctx, silent, 1, 10, clipB); err != nil {
		t.Fatalf("Extract silent failed: %v", err)
	}

	info, err := ex.ProbeVideo(ctx, clipB)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}
	if !info.HasAudio {
		t.Error("expected synthesized audio track on silent source")
	}
	if math.Abs(info.Duration-2) > 0.3 {
		t.Errorf("clamped clip duration = %.3f, want ~2", info.Duration)
	}

	final := filepath.Join(dir, "final.mp4")
	var lastPct float64
	err = ex.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:       []string{clipA, clipB},
		Output:       final,
		ReEncode:     true,
		Expected:     4,
		ProgressFunc: func(p *ffmpeg.Progress) { lastPct = p.Percentage },
	})
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}

	got, err := ex.Duration(ctx, final)
	if err != nil {
		t.Fatalf("Duration of output failed: %v", err)
	}
	if math.Abs(got-4) > 0.4 {
		t.Errorf("output duration = %.3f, want ~4", got)
	}
	t.Logf("final %s: %.2fs (last progress %.0f%%)", final, got, lastPct)
}

func TestIntegration_ExtractStartPastEnd(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := makeTestVideo(t, dir, "short.mp4", 2, true)

	ex := newExecutor(t)
	err := ex.Extract(context.Background(), src, 5, 3, filepath.Join(dir, "out.mp4"))
	if !errors.Is(err, ffmpeg.ErrStartPastEnd) {
		t.Fatalf("err = %v, want ErrStartPastEnd", err)
	}
}

func TestIntegration_DurationUnavailable(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "garbage.mp4")
	if err := os.WriteFile(path, []byte("not a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := newExecutor(t)
	if _, err := ex.Duration(context.Background(), path); !errors.Is(err, clips.ErrProbeUnavailable) {
		t.Fatalf("err = %v, want ErrProbeUnavailable", err)
	}
}
