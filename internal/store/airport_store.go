package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"airportmath/internal/domain"
)

// Loader produces the airport dataset
type Loader interface {
	Load(ctx context.Context) ([]domain.Airport, error)
}

// AirportStore caches the airport dataset for ttl. The cache refreshes lazily
// on the first access after expiry; there is no background timer.
type AirportStore struct {
	mu         sync.RWMutex
	airports   []domain.Airport
	lastUpdate time.Time
	expiresAt  time.Time

	refresh     singleflight.Group
	loader      Loader
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

type AirportStats struct {
	Count      int       `json:"count"`
	LastUpdate time.Time `json:"last_update"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewAirportStore wires a store. loadTimeout bounds a single refresh; zero
// means no bound beyond what the loader applies itself.
func NewAirportStore(loader Loader, ttl, loadTimeout time.Duration, logger *slog.Logger) *AirportStore {
	return &AirportStore{
		loader:      loader,
		ttl:         ttl,
		loadTimeout: loadTimeout,
		now:         time.Now,
		logger:      logger.With("component", "airport_store"),
	}
}

// Airports returns the dataset, loading it first when empty or expired.
// Concurrent callers share a single load, which is detached from the
// caller's cancellation: a caller that gives up stops waiting but the load
// runs to completion for everyone else. If a refresh fails the previous
// dataset is served and the next call retries.
func (s *AirportStore) Airports(ctx context.Context) ([]domain.Airport, error) {
	if airports, ok := s.fresh(); ok {
		return airports, nil
	}

	ch := s.refresh.DoChan("airports", func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		if s.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.loadTimeout)
			defer cancel()
		}
		return s.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		if stale := s.current(); len(stale) > 0 {
			return stale, nil
		}
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]domain.Airport)), nil
	}
}

func (s *AirportStore) load(ctx context.Context) ([]domain.Airport, error) {
	// A load that finished just before this one started already refreshed.
	if airports, ok := s.fresh(); ok {
		return airports, nil
	}

	start := time.Now()
	airports, err := s.loader.Load(ctx)
	if err == nil && len(airports) == 0 {
		err = fmt.Errorf("loader returned no airports")
	}
	if err != nil {
		if stale := s.current(); len(stale) > 0 {
			s.logger.Warn("airport refresh failed, serving stale dataset", "error", err, "count", len(stale))
			return stale, nil
		}
		return nil, fmt.Errorf("load airports: %w", err)
	}

	s.Replace(airports)
	s.logger.Info("airport dataset refreshed",
		"count", len(airports),
		"ttl", s.ttl,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return airports, nil
}

// Replace installs a new dataset and restarts the TTL
func (s *AirportStore) Replace(airports []domain.Airport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.airports = slices.Clone(airports)
	s.lastUpdate = now
	s.expiresAt = now.Add(s.ttl)
}

// Loaded reports whether a dataset has ever been installed
func (s *AirportStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.airports) > 0
}

func (s *AirportStore) Stats() AirportStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AirportStats{
		Count:      len(s.airports),
		LastUpdate: s.lastUpdate,
		ExpiresAt:  s.expiresAt,
	}
}

func (s *AirportStore) current() []domain.Airport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.airports)
}

func (s *AirportStore) fresh() ([]domain.Airport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.airports) == 0 || !s.now().Before(s.expiresAt) {
		return nil, false
	}
	return slices.Clone(s.airports), true
}
