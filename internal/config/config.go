package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kikiluvv/replaycut/pkg/util"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Environment variable overrides, applied after the config file
const (
	EnvInputDir      = "REPLAYCUT_INPUT_DIR"
	EnvOutputDir     = "REPLAYCUT_OUTPUT_DIR"
	EnvTargetSeconds = "REPLAYCUT_TARGET_SECONDS"
	EnvConcurrency   = "REPLAYCUT_CONCURRENCY"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	InputDir    string `yaml:"input_dir"`
	OutputDir   string `yaml:"output_dir"`
	TempDir     string `yaml:"temp_dir"`
	Concurrency int    `yaml:"concurrency"`
	LogDir      string `yaml:"log_dir"`

	Scheduler SchedulerConfig `yaml:"scheduler"`
	Library   LibraryConfig   `yaml:"library"`
	Compile   CompileConfig   `yaml:"compile"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	Cache  CacheConfig  `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
}

type SchedulerConfig struct {
	TargetClipDuration float64 `yaml:"target_clip_duration"`
}

type LibraryConfig struct {
	Extensions    []string `yaml:"extensions"`
	MaxFileSizeMB int64    `yaml:"max_file_size_mb"` // 0 = no limit
}

type CompileConfig struct {
	OutputName    string  `yaml:"output_name"`
	IntroPath     string  `yaml:"intro_path"`
	IntroDuration float64 `yaml:"intro_duration"`
}

type FFmpegConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	Threads      int    `yaml:"threads"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// MaxFileSize returns the extraction size limit in bytes, 0 for none.
func (l LibraryConfig) MaxFileSize() int64 {
	return l.MaxFileSizeMB * 1024 * 1024
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every setting that cannot produce a working run, joined
// into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.Scheduler.TargetClipDuration <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.target_clip_duration must be > 0, got %v", c.Scheduler.TargetClipDuration))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency))
	}
	if len(c.Library.Extensions) == 0 {
		errs = append(errs, errors.New("library.extensions must not be empty"))
	}
	if c.Library.MaxFileSizeMB < 0 {
		errs = append(errs, fmt.Errorf("library.max_file_size_mb must be >= 0, got %d", c.Library.MaxFileSizeMB))
	}
	if c.Compile.IntroDuration <= 0 {
		errs = append(errs, fmt.Errorf("compile.intro_duration must be > 0, got %v", c.Compile.IntroDuration))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvInputDir); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvTargetSeconds); v != "" {
		secs, err := util.ParseTimestamp(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTargetSeconds, err)
		}
		c.Scheduler.TargetClipDuration = secs
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	return nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.InputDir, &c.OutputDir, &c.TempDir, &c.LogDir,
		&c.Compile.IntroPath, &c.Cache.Path,
	} {
		*p = util.ExpandHome(*p)
	}
}

func defaultConfig() *Config {
	return &Config{
		InputDir:    "~/Videos/Captures",
		OutputDir:   "~/Downloads",
		Concurrency: 4,
		Scheduler: SchedulerConfig{
			TargetClipDuration: 15,
		},
		Library: LibraryConfig{
			Extensions:    []string{".mp4", ".avi", ".mov", ".mkv"},
			MaxFileSizeMB: 500,
		},
		Compile: CompileConfig{
			OutputName:    "Replay_Compilation.mp4",
			IntroDuration: 7,
		},
		FFmpeg: FFmpegConfig{
			Threads:      0,
			Preset:       "fast",
			CRF:          23,
			AudioBitrate: "192k",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "~/.replaycut/probe.db",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8790",
		},
	}
}

// Default returns the built-in configuration with home paths expanded.
func Default() *Config {
	cfg := defaultConfig()
	cfg.expandPaths()
	return cfg
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		util.ExpandHome("~/.replaycut/config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
