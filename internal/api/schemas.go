package api

import (
	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/kikiluvv/replaycut/internal/scheduler"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type FileRequest struct {
	Path     string  `json:"path"`
	Created  float64 `json:"created"`
	Modified float64 `json:"modified"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size,omitempty"`
}

type ScheduleRequest struct {
	TargetClipDuration float64       `json:"target_clip_duration"`
	Files              []FileRequest `json:"files"`
}

type PlanRequest struct {
	Dir                string  `json:"dir"`
	TargetClipDuration float64 `json:"target_clip_duration,omitempty"`
}

type SkipResponse struct {
	Path   string `json:"path"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type ScheduleResponse struct {
	RunID   string                `json:"run_id,omitempty"`
	Dir     string                `json:"dir,omitempty"`
	Clips   []clips.ScheduledClip `json:"clips"`
	Skipped []SkipResponse        `json:"skipped"`
	Summary scheduler.Summary     `json:"summary"`
}

type CacheStatsResponse struct {
	Enabled bool  `json:"enabled"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int64 `json:"entries"`
}

type PurgeResponse struct {
	Purged int64 `json:"purged"`
}
