package service

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/telavision/epgvault/internal/cache"
	"github.com/telavision/epgvault/internal/store"
)

// ErrRunInFlight is returned when an ingestion run is requested while
// another one is still running.
var ErrRunInFlight = errors.New("ingestion run already in flight")

// lockTTL must outlast the longest plausible run so a crashed holder
// does not block ingestion forever.
const lockTTL = 30 * time.Minute

// Runner serializes ingestion runs. Within the process an atomic flag
// rejects overlapping runs; when Redis is configured a distributed
// lock extends the guarantee across processes.
type Runner struct {
	store   store.Store
	fetcher Fetcher
	cache   *cache.Redis // nil when Redis is not configured
	running atomic.Bool
}

// NewRunner creates a Runner. c may be nil.
func NewRunner(s store.Store, f Fetcher, c *cache.Redis) *Runner {
	return &Runner{store: s, fetcher: f, cache: c}
}

// InFlight reports whether this process is currently running an
// ingestion pass.
func (r *Runner) InFlight() bool {
	return r.running.Load()
}

// Run executes one full ingestion pass under the mutual-exclusion
// guard. Returns ErrRunInFlight when another run holds the guard.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID) (*RunStats, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInFlight
	}
	defer r.running.Store(false)

	if r.cache != nil {
		unlock, err := cache.TryLock(ctx, r.cache, cache.IngestLockKey, lockTTL)
		if errors.Is(err, cache.ErrLocked) {
			return nil, ErrRunInFlight
		}
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	start := time.Now()
	stats, err := Ingest(ctx, r.store, r.fetcher, runID)
	if err != nil {
		return nil, err
	}
	log.Printf("ingest[%s]: run took %s", runID, time.Since(start).Round(time.Millisecond))
	return stats, nil
}
