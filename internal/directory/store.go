package directory

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// EmptyResultError indicates a syntactically valid CSV that produced zero
// usable provider rows. The store treats it like any other failed attempt.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "csv parsed but contained no valid provider rows"
}

// TextFetcher retrieves the raw CSV text for a URL.
// Satisfied by *fetch.Fetcher.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StoreConfig configures a Store.
type StoreConfig struct {
	SourceURL     string
	TTL           time.Duration
	RetryAttempts int           // fetch-parse cycles before falling back (default: 3)
	RetryDelay    time.Duration // base for linear backoff: attempt N waits Delay*N
	Fallback      ProviderList  // statically configured last resort, may be nil
}

// Store composes the fetcher, the parser, and both cache tiers into a
// single "get current provider list" operation.
//
// Store never fails outward: Providers always returns a list, degrading
// through fresh cache, fresh persisted snapshot, stale cache, and the
// static fallback. A total failure of the chain yields an empty list,
// which callers must treat as "nothing to show", not as an error.
type Store struct {
	cfg       StoreConfig
	fetcher   TextFetcher
	snapshots SnapshotStore

	memory memoryCache
	group  singleflight.Group

	// swappable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewStore creates a Store. A nil snapshots store disables the persisted
// tier (every Load misses, every Save is dropped).
func NewStore(cfg StoreConfig, fetcher TextFetcher, snapshots SnapshotStore) *Store {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if snapshots == nil {
		snapshots = NewMemorySnapshotStore()
	}
	return &Store{
		cfg:       cfg,
		fetcher:   fetcher,
		snapshots: snapshots,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Providers returns the current provider list.
//
// With force false, a fresh in-memory entry is returned without touching
// the network. Otherwise the store runs fetch-parse cycles with linear
// backoff and falls back through the recovery chain on exhaustion.
// Concurrent non-forced calls that miss the cache share a single flight.
func (s *Store) Providers(ctx context.Context, force bool) ProviderList {
	if !force {
		if e := s.memory.get(); e != nil && e.Fresh(s.now(), s.cfg.TTL) {
			return e.Records
		}

		v, _, _ := s.group.Do("fetch", func() (interface{}, error) {
			// Re-check under the flight: a caller that queued behind a
			// successful fetch can use its result directly.
			if e := s.memory.get(); e != nil && e.Fresh(s.now(), s.cfg.TTL) {
				return e.Records, nil
			}
			return s.fetchWithRecovery(ctx), nil
		})
		return v.(ProviderList)
	}

	return s.fetchWithRecovery(ctx)
}

// Refresh forces an authoritative fetch regardless of cache freshness.
func (s *Store) Refresh(ctx context.Context) ProviderList {
	return s.Providers(ctx, true)
}

// fetchWithRecovery runs up to RetryAttempts fetch-parse cycles, then walks
// the recovery chain. Once started, the retry sequence runs to exhaustion.
func (s *Store) fetchWithRecovery(ctx context.Context) ProviderList {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		records, err := s.fetchOnce(ctx)
		if err == nil {
			s.storeSuccess(ctx, records)
			return records
		}

		lastErr = err
		slog.Warn("provider fetch attempt failed",
			"attempt", attempt,
			"max_attempts", s.cfg.RetryAttempts,
			"error", err,
		)

		if attempt < s.cfg.RetryAttempts {
			// Linear backoff, a deliberate policy: delay * attempt number.
			s.sleep(s.cfg.RetryDelay * time.Duration(attempt))
		}
	}

	slog.Error("provider fetch exhausted retries, falling back",
		"attempts", s.cfg.RetryAttempts,
		"error", lastErr,
	)
	return s.recover(ctx)
}

// fetchOnce performs one fetch-parse cycle. Zero valid rows counts as a
// failure even though the parser itself does not.
func (s *Store) fetchOnce(ctx context.Context) (ProviderList, error) {
	text, err := s.fetcher.Fetch(ctx, s.cfg.SourceURL)
	if err != nil {
		return nil, err
	}

	records, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &EmptyResultError{}
	}

	return records, nil
}

// storeSuccess overwrites both cache tiers with a fresh result. A snapshot
// write failure is logged and absorbed; the fetch still succeeded.
func (s *Store) storeSuccess(ctx context.Context, records ProviderList) {
	fetchedAt := s.now()
	s.memory.set(&Entry{Records: records, FetchedAt: fetchedAt})

	if err := s.snapshots.Save(ctx, Snapshot{Records: records, FetchedAt: fetchedAt}); err != nil {
		slog.Warn("provider snapshot save failed", "error", err)
	}

	slog.Info("provider list refreshed", "providers", len(records))
}

// recover walks the degraded sources in order: fresh persisted snapshot,
// last known in-memory entry even if stale, static fallback, empty list.
// A stale-but-present cache is never evicted by a failed fetch.
func (s *Store) recover(ctx context.Context) ProviderList {
	if snap, err := s.snapshots.Load(ctx); err != nil {
		slog.Warn("provider snapshot load failed", "error", err)
	} else if snap != nil && snap.Fresh(s.now(), s.cfg.TTL) {
		slog.Info("serving providers from persisted snapshot", "providers", len(snap.Records))
		return snap.Records
	}

	if e := s.memory.get(); e != nil {
		slog.Info("serving stale in-memory providers", "providers", len(e.Records))
		return e.Records
	}

	if s.cfg.Fallback != nil {
		slog.Info("serving static fallback providers", "providers", len(s.cfg.Fallback))
		return s.cfg.Fallback
	}

	return ProviderList{}
}
