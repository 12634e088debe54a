package ffmpeg

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestExecutor() *Executor {
	return &Executor{
		logger: zerolog.Nop(),
		opts:   Options{}.withDefaults(),
	}
}

func TestClampWindow(t *testing.T) {
	tests := []struct {
		name         string
		start, dur   float64
		total        float64
		wantStart    float64
		wantDuration float64
		wantErr      error
	}{
		{"inside", 45, 15, 60, 45, 15, nil},
		{"negative start", -2, 5, 60, 0, 5, nil},
		{"overrun clamped", 55, 15, 60, 55, 5, nil},
		{"start at end", 60, 5, 60, 0, 0, ErrStartPastEnd},
		{"start past end", 70, 5, 60, 0, 0, ErrStartPastEnd},
		{"zero duration", 10, 0, 60, 0, 0, ErrEmptySegment},
		{"unknown total", 0, 5, 0, 0, 0, ErrEmptySegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, dur, err := clampWindow(tt.start, tt.dur, tt.total)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.wantStart || dur != tt.wantDuration {
				t.Errorf("clampWindow = (%v, %v), want (%v, %v)", start, dur, tt.wantStart, tt.wantDuration)
			}
		})
	}
}

func TestClipArgsWithAudio(t *testing.T) {
	e := newTestExecutor()

	got := e.clipArgs("in.mp4", 55, 5, true, ClipOptions{Output: "out.mp4"})
	want := []string{
		"-ss", "00:00:55.000",
		"-i", "in.mp4",
		"-t", "00:00:05.000",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		"out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("clipArgs =\n%v\nwant\n%v", got, want)
	}
}

func TestClipArgsSilentTrack(t *testing.T) {
	e := newTestExecutor()

	got := strings.Join(e.clipArgs("in.mp4", 0, 7, false, ClipOptions{Output: "out.mp4", CopyCodec: true}), " ")

	for _, part := range []string{"-f lavfi -i " + silentAudioSource, "-map 0:v:0 -map 1:a:0", "-shortest", "-c:a aac"} {
		if !strings.Contains(got, part) {
			t.Errorf("args %q missing %q", got, part)
		}
	}
	if strings.Contains(got, "-c copy") {
		t.Error("stream copy cannot be used when a silent track is synthesized")
	}
}

func TestClipArgsCopyCodec(t *testing.T) {
	e := newTestExecutor()

	got := e.clipArgs("in.mp4", 1.5, 2, true, ClipOptions{Output: "out.mp4", CopyCodec: true})
	if got[len(got)-3] != "-c" || got[len(got)-2] != "copy" {
		t.Errorf("expected -c copy before output, got %v", got)
	}
}

func TestParseProbeOutput(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "61.500000", "bit_rate": "8000000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 2560, "height": 1440,
			 "r_frame_rate": "60/1", "duration": "61.466667"},
			{"codec_type": "audio", "codec_name": "aac", "bit_rate": "192000"}
		]}`)

	info, err := parseProbeOutput("clip.mp4", raw)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.Duration != 61.466667 {
		t.Errorf("duration = %v, want stream duration 61.466667", info.Duration)
	}
	if info.Width != 2560 || info.Height != 1440 || info.FPS != 60 {
		t.Errorf("video = %dx%d@%v", info.Width, info.Height, info.FPS)
	}
	if !info.HasAudio || info.AudioBitrate != 192000 {
		t.Errorf("audio = %v/%d", info.HasAudio, info.AudioBitrate)
	}
}

func TestParseProbeOutputFormatFallback(t *testing.T) {
	raw := []byte(`{"format": {"duration": "12.25"}, "streams": [{"codec_type": "video"}]}`)

	info, err := parseProbeOutput("clip.mkv", raw)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.Duration != 12.25 {
		t.Errorf("duration = %v, want format duration 12.25", info.Duration)
	}
	if info.HasAudio {
		t.Error("expected no audio")
	}
}

func TestParseProbeOutputNoDuration(t *testing.T) {
	info, err := parseProbeOutput("clip.mkv", []byte(`{"format": {}, "streams": []}`))
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.Duration != 0 {
		t.Errorf("duration = %v, want 0", info.Duration)
	}

	if _, err := parseProbeOutput("clip.mkv", []byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestStreamOutputProgress(t *testing.T) {
	e := newTestExecutor()

	input := strings.Join([]string{
		"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mp4':",
		"frame=120",
		"fps=59.9",
		"bitrate=4000.1kbits/s",
		"out_time_us=2500000",
		"out_time=00:00:02.500000",
		"speed=1.2x",
		"progress=continue",
		"frame=300",
		"out_time_us=5000000",
		"progress=end",
	}, "\n")

	var got []Progress
	var logs []string
	e.streamOutput(strings.NewReader(input), 5,
		func(p *Progress) { got = append(got, *p) },
		func(line string) { logs = append(logs, line) },
	)

	if len(got) != 2 {
		t.Fatalf("got %d progress blocks, want 2", len(got))
	}
	if got[0].Frame != 120 || got[0].FPS != 59.9 || got[0].Percentage != 50 || got[0].Speed != "1.2x" {
		t.Errorf("first block = %+v", got[0])
	}
	if got[1].Percentage != 100 {
		t.Errorf("final percentage = %v, want 100", got[1].Percentage)
	}
	if len(logs) != 1 || !strings.HasPrefix(logs[0], "Input #0") {
		t.Errorf("logs = %v, want the non-progress line", logs)
	}
}

func TestCreateConcatFile(t *testing.T) {
	dir := t.TempDir()

	path, err := createConcatFile(dir, []string{"/clips/a.mp4", "/clips/it's.mp4"})
	if err != nil {
		t.Fatalf("createConcatFile failed: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "file '/clips/a.mp4'\nfile '/clips/it'\\''s.mp4'\n"
	if string(data) != want {
		t.Errorf("concat list =\n%s\nwant\n%s", data, want)
	}
}

func TestConcatValidation(t *testing.T) {
	e := newTestExecutor()

	if err := e.Concat(context.Background(), ConcatOptions{Output: "out.mp4"}); err == nil {
		t.Error("expected error for no inputs")
	}
	if err := e.Concat(context.Background(), ConcatOptions{Inputs: []string{"a.mp4"}}); !errors.Is(err, ErrMissingOutput) {
		t.Errorf("err = %v, want ErrMissingOutput", err)
	}
}

func TestRunRequiresArgs(t *testing.T) {
	e := newTestExecutor()
	if err := e.Run(context.Background(), RunOptions{}); err == nil {
		t.Error("expected error for empty args")
	}
}
