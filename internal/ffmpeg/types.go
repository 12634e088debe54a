package ffmpeg

// VideoInfo contains metadata about a video file. Duration is in seconds.
type VideoInfo struct {
	FilePath     string
	Duration     float64
	Width        int
	Height       int
	FPS          float64
	Bitrate      int64
	VideoCodec   string
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	Time       string
	Speed      string
	Percentage float64
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	Expected        float64 // expected output seconds, for Progress.Percentage
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultCRF          = 23
	DefaultPreset       = "fast"
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "192k"
)

// Silent track muxed into clips whose source has no audio, so every
// segment of a concat has the same stream layout.
const silentAudioSource = "anullsrc=channel_layout=stereo:sample_rate=44100"

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)
