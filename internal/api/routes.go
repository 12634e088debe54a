package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/kikiluvv/replaycut/internal/library"
	"github.com/kikiluvv/replaycut/internal/scheduler"
)

// maxBodyBytes bounds request bodies; a file list is a few hundred bytes per entry.
const maxBodyBytes = 8 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	logger := cfg.Logger.With().Str("component", "api").Logger()

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/schedule", scheduleHandler(cfg))
		if cfg.Planner != nil {
			r.Post("/plan", planHandler(cfg))
		}
		r.Get("/cache", cacheStatsHandler(cfg))
		r.Delete("/cache", purgeCacheHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var uptime int64
		if !cfg.StartTime.IsZero() {
			uptime = int64(time.Since(cfg.StartTime).Seconds())
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func scheduleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if !decodeBody(w, r, &req) {
			return
		}

		sched, err := scheduler.New(cfg.Logger, scheduler.Options{TargetClipDuration: req.TargetClipDuration})
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TARGET")
			return
		}

		files := make([]clips.SourceFile, 0, len(req.Files))
		for _, f := range req.Files {
			files = append(files, clips.SourceFile{
				Path:     f.Path,
				Created:  f.Created,
				Modified: f.Modified,
				Duration: f.Duration,
				Size:     f.Size,
			})
		}

		WriteJSON(w, http.StatusOK, planResponse(sched.Schedule(files)))
	}
}

func planHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlanRequest
		if !decodeBody(w, r, &req) {
			return
		}
		t := req.TargetClipDuration
		if t < 0 || math.IsInf(t, 0) {
			WriteError(w, http.StatusBadRequest, "target_clip_duration must be > 0", "INVALID_TARGET")
			return
		}

		res, err := cfg.Planner.PlanWithTarget(r.Context(), req.Dir, t)
		switch {
		case err == nil:
		case errors.Is(err, clips.ErrEmptyInput):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EMPTY_INPUT")
			return
		case errors.Is(err, clips.ErrNoFilesScheduled):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NO_FILES_SCHEDULED")
			return
		case errors.Is(err, os.ErrNotExist):
			WriteError(w, http.StatusNotFound, err.Error(), "DIR_NOT_FOUND")
			return
		case errors.Is(err, clips.ErrInvalidTarget):
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TARGET")
			return
		case errors.Is(err, library.ErrNotDirectory):
			WriteError(w, http.StatusBadRequest, err.Error(), "NOT_A_DIRECTORY")
			return
		default:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := planResponse(res.Plan)
		resp.RunID = res.RunID
		resp.Dir = res.Dir
		WriteJSON(w, http.StatusOK, resp)
	}
}

func cacheStatsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Cache == nil {
			WriteJSON(w, http.StatusOK, CacheStatsResponse{Enabled: false})
			return
		}
		s, err := cfg.Cache.Stats(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, CacheStatsResponse{
			Enabled: true,
			Hits:    s.Hits,
			Misses:  s.Misses,
			Entries: s.Entries,
		})
	}
}

func purgeCacheHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Cache == nil {
			WriteError(w, http.StatusNotFound, "probe cache is disabled", "CACHE_DISABLED")
			return
		}
		n, err := cfg.Cache.Purge(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, PurgeResponse{Purged: n})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "BAD_REQUEST")
		return false
	}
	return true
}

func planResponse(plan scheduler.Plan) ScheduleResponse {
	resp := ScheduleResponse{
		Clips:   plan.Clips,
		Skipped: make([]SkipResponse, 0, len(plan.Skipped)),
		Summary: plan.Summary,
	}
	if resp.Clips == nil {
		resp.Clips = []clips.ScheduledClip{}
	}
	for _, s := range plan.Skipped {
		resp.Skipped = append(resp.Skipped, SkipResponse{
			Path:   s.Path,
			Code:   skipCode(s.Reason),
			Reason: errString(s.Reason),
		})
	}
	return resp
}

func skipCode(err error) string {
	switch {
	case errors.Is(err, clips.ErrProbeUnavailable):
		return "probe_unavailable"
	case errors.Is(err, clips.ErrFullyOverlapped):
		return "fully_overlapped"
	case errors.Is(err, clips.ErrNegligibleRemainder):
		return "negligible_remainder"
	default:
		return "unknown"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
