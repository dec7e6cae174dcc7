package ingestor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"airportmath/internal/cache"
	"airportmath/internal/domain"
	"airportmath/pkg/ourairports"
)

// Dataset sources reported by AirportLoader.Source
const (
	SourceNone       = "none"
	SourceRedis      = "redis"
	SourceParseCache = "parse_cache"
	SourceDownload   = "download"
	SourceFallback   = "fallback"
)

// Downloader fetches the raw airports CSV
type Downloader interface {
	Download(ctx context.Context) ([]byte, error)
}

// SnapshotCache shares the parsed dataset between instances
type SnapshotCache interface {
	GetJSONCompressed(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSONCompressed(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Snapshot is the dataset as stored in the shared cache
type Snapshot struct {
	Airports    []domain.Airport `json:"airports"`
	Fingerprint string           `json:"fingerprint"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ErrDatasetUnavailable is returned by Load when a refresh fails after a
// real dataset was already served; the caller keeps its previous copy.
var ErrDatasetUnavailable = errors.New("airport dataset unavailable")

// AirportLoader resolves the airport dataset: shared snapshot, then a fresh
// download (reusing the on-disk parse cache when the CSV is unchanged). The
// static fallback list is only handed out while no real dataset has been
// loaded yet and the load was not cancelled.
type AirportLoader struct {
	downloader Downloader
	parser     *ourairports.Parser
	snapshots  SnapshotCache
	parseCache *ourairports.ParseCache
	ttl        time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	source string
	served bool
}

// NewAirportLoader wires a loader. snapshots may be nil when Redis is off.
func NewAirportLoader(downloader Downloader, snapshots SnapshotCache, cacheDir string, ttl time.Duration, logger *slog.Logger) *AirportLoader {
	return &AirportLoader{
		downloader: downloader,
		parser:     ourairports.NewParser(logger),
		snapshots:  snapshots,
		parseCache: ourairports.NewParseCache(cacheDir),
		ttl:        ttl,
		logger:     logger.With("component", "airport_loader"),
		source:     SourceNone,
	}
}

func (l *AirportLoader) Load(ctx context.Context) ([]domain.Airport, error) {
	start := time.Now()
	l.logger.Info("loading airport dataset")

	airports, err := l.resolve(ctx, start)
	if err == nil {
		return airports, nil
	}

	l.logger.Error("airport dataset load failed", "error", err)
	// a cancelled load or one that would replace a real dataset must not
	// install the fallback list for a whole TTL
	if ctx.Err() != nil || l.hasServed() {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return l.fallback(), nil
}

func (l *AirportLoader) resolve(ctx context.Context, start time.Time) ([]domain.Airport, error) {
	if airports, ok := l.loadSnapshot(ctx); ok {
		l.markServed(SourceRedis)
		l.logger.Info("loaded airport snapshot from redis",
			"count", len(airports),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return airports, nil
	}

	data, err := l.downloader.Download(ctx)
	if err != nil {
		return nil, fmt.Errorf("download airports: %w", err)
	}

	fingerprint := ourairports.DataFingerprint(data)
	source := SourceParseCache
	result, cachePath, cacheErr := l.parseCache.Load(fingerprint)
	if cacheErr == nil {
		l.logger.Info("loaded parsed airports cache", "path", cachePath)
	} else {
		l.logger.Info("parsed airports cache miss, parsing CSV", "path", cachePath, "error", cacheErr)
		source = SourceDownload
		result, err = l.parser.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse airports: %w", err)
		}
		if len(result.Airports) == 0 {
			return nil, errors.New("airport dataset is empty after filtering")
		}
		if savedPath, saveErr := l.parseCache.Save(fingerprint, result); saveErr != nil {
			l.logger.Warn("failed to persist parsed airports cache", "error", saveErr)
		} else {
			l.logger.Info("persisted parsed airports cache", "path", savedPath)
		}
	}

	l.saveSnapshot(ctx, Snapshot{
		Airports:    result.Airports,
		Fingerprint: fingerprint,
		GeneratedAt: time.Now(),
	})

	l.markServed(source)
	l.logger.Info("airport dataset loaded",
		"source", source,
		"count", len(result.Airports),
		"rejected", result.Rejected,
		"total_duration_ms", time.Since(start).Milliseconds(),
	)
	return result.Airports, nil
}

// Source names where the last dataset came from
func (l *AirportLoader) Source() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

func (l *AirportLoader) loadSnapshot(ctx context.Context) ([]domain.Airport, bool) {
	if l.snapshots == nil {
		return nil, false
	}
	var snap Snapshot
	found, err := l.snapshots.GetJSONCompressed(ctx, cache.KeyAirportsDataset, &snap)
	if err != nil {
		l.logger.Warn("failed to read airport snapshot", "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	if len(snap.Airports) == 0 {
		// an empty snapshot would shadow the dataset for every instance
		if err := l.snapshots.Delete(ctx, cache.KeyAirportsDataset); err != nil {
			l.logger.Warn("failed to drop empty airport snapshot", "error", err)
		}
		return nil, false
	}
	return snap.Airports, true
}

func (l *AirportLoader) saveSnapshot(ctx context.Context, snap Snapshot) {
	if l.snapshots == nil {
		return
	}
	if err := l.snapshots.SetJSONCompressed(ctx, cache.KeyAirportsDataset, snap, l.ttl); err != nil {
		l.logger.Warn("failed to store airport snapshot", "error", err)
	}
}

// fallback is never written to the shared snapshot so other instances keep
// retrying the real dataset.
func (l *AirportLoader) fallback() []domain.Airport {
	airports := ourairports.Fallback()
	l.setSource(SourceFallback)
	l.logger.Warn("using static fallback airport list", "count", len(airports))
	return airports
}

func (l *AirportLoader) setSource(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = source
}

func (l *AirportLoader) markServed(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = source
	l.served = true
}

func (l *AirportLoader) hasServed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.served
}
