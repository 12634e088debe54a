package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvInputDir, EnvOutputDir, EnvTargetSeconds, EnvConcurrency} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scheduler.TargetClipDuration != 15 {
		t.Errorf("target = %v, want 15", cfg.Scheduler.TargetClipDuration)
	}
	if cfg.Concurrency != 4 || cfg.Library.MaxFileSizeMB != 500 || cfg.Compile.IntroDuration != 7 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if strings.HasPrefix(cfg.Cache.Path, "~") {
		t.Errorf("cache path not expanded: %s", cfg.Cache.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
input_dir: /rec
concurrency: 2
scheduler:
  target_clip_duration: 20
library:
  extensions: [.mp4]
ffmpeg:
  preset: veryfast
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InputDir != "/rec" || cfg.Concurrency != 2 || cfg.Scheduler.TargetClipDuration != 20 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if len(cfg.Library.Extensions) != 1 || cfg.FFmpeg.Preset != "veryfast" {
		t.Errorf("nested values not applied: %+v", cfg)
	}
	// keys absent from the file keep their defaults
	if cfg.FFmpeg.CRF != 23 || cfg.Compile.OutputName != "Replay_Compilation.mp4" {
		t.Errorf("defaults lost: crf %d name %s", cfg.FFmpeg.CRF, cfg.Compile.OutputName)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvInputDir, "/env/in")
	t.Setenv(EnvOutputDir, "/env/out")
	t.Setenv(EnvTargetSeconds, "1:30")
	t.Setenv(EnvConcurrency, "8")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InputDir != "/env/in" || cfg.OutputDir != "/env/out" {
		t.Errorf("dirs = %s, %s", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.Scheduler.TargetClipDuration != 90 {
		t.Errorf("target = %v, want 90", cfg.Scheduler.TargetClipDuration)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Concurrency)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConcurrency, "many")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for invalid concurrency")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero target", func(c *Config) { c.Scheduler.TargetClipDuration = 0 }, "target_clip_duration"},
		{"no workers", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"no extensions", func(c *Config) { c.Library.Extensions = nil }, "extensions"},
		{"negative size", func(c *Config) { c.Library.MaxFileSizeMB = -1 }, "max_file_size_mb"},
		{"zero intro", func(c *Config) { c.Compile.IntroDuration = 0 }, "intro_duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryFailure(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.TargetClipDuration = 0
	cfg.Concurrency = 0
	cfg.Library.Extensions = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"target_clip_duration", "concurrency", "extensions"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, missing %q", err, want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Scheduler.TargetClipDuration = 12.5
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Scheduler.TargetClipDuration != 12.5 {
		t.Errorf("target = %v, want 12.5", loaded.Scheduler.TargetClipDuration)
	}
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 9

	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.Concurrency != 9 {
		t.Errorf("FromContext concurrency = %d, want 9", got.Concurrency)
	}
	if got := FromContext(context.Background()); got.Concurrency != 4 {
		t.Errorf("fallback concurrency = %d, want 4", got.Concurrency)
	}
}
