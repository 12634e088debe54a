package probecache

import (
	"context"
	"fmt"
	"os"

	"github.com/kikiluvv/replaycut/internal/probe"
)

// Prober answers from the cache and falls through to next on a miss.
// Failed probes are never stored, so an unreadable file is retried next run.
type Prober struct {
	cache *Cache
	next  probe.Prober
}

// NewProber wraps next with cache.
func NewProber(cache *Cache, next probe.Prober) *Prober {
	return &Prober{cache: cache, next: next}
}

// Duration implements probe.Prober.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", probe.ErrUnavailable, err)
	}
	key := Key{Path: path, Size: info.Size(), MtimeNs: info.ModTime().UnixNano()}

	if dur, ok, err := p.cache.Get(ctx, key); err != nil {
		p.cache.logger.Warn().Err(err).Str("file", path).Msg("cache read failed")
	} else if ok {
		return dur, nil
	}

	dur, err := p.next.Duration(ctx, path)
	if err != nil {
		return 0, err
	}

	if err := p.cache.Put(ctx, key, dur); err != nil {
		p.cache.logger.Warn().Err(err).Str("file", path).Msg("cache write failed")
	}
	return dur, nil
}
