package ourairports

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// parseCacheVersion is bumped whenever the cached record layout changes so
// entries written by an older build are reparsed instead of misdecoded.
const parseCacheVersion = 1

const parseCachePrefix = "airports_parsed_"

var ErrParseCacheStale = errors.New("parsed airports cache does not match the dataset")

// cachedDataset is the on-disk record: the parse result plus the fingerprint
// of the CSV it was parsed from.
type cachedDataset struct {
	Version     int
	Fingerprint string
	ParsedAt    time.Time
	Result      ParseResult
}

// ParseCache keeps parsed OurAirports results on disk keyed by the SHA-256
// of the raw CSV, so an unchanged download skips the CSV parse.
type ParseCache struct {
	dir string
}

// NewParseCache uses dir, or a temp-dir default when dir is empty
func NewParseCache(dir string) *ParseCache {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "airportmath-cache")
	}
	return &ParseCache{dir: dir}
}

func (c *ParseCache) Dir() string {
	return c.dir
}

func DataFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *ParseCache) path(fingerprint string) string {
	return filepath.Join(c.dir, parseCachePrefix+fingerprint+".gob.gz")
}

// Load returns the cached result for fingerprint. A record whose embedded
// fingerprint or version disagrees, or that holds no airports, is rejected
// with ErrParseCacheStale.
func (c *ParseCache) Load(fingerprint string) (*ParseResult, string, error) {
	path := c.path(fingerprint)
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, path, err
	}
	defer zr.Close()

	var rec cachedDataset
	if err := gob.NewDecoder(zr).Decode(&rec); err != nil {
		return nil, path, err
	}

	switch {
	case rec.Version != parseCacheVersion:
		return nil, path, fmt.Errorf("%w: version %d", ErrParseCacheStale, rec.Version)
	case rec.Fingerprint != fingerprint:
		return nil, path, fmt.Errorf("%w: fingerprint %.12s", ErrParseCacheStale, rec.Fingerprint)
	case len(rec.Result.Airports) == 0:
		return nil, path, fmt.Errorf("%w: no airports", ErrParseCacheStale)
	}
	return &rec.Result, path, nil
}

// Save writes result atomically and removes records for other fingerprints,
// so the directory only ever holds the current dataset.
func (c *ParseCache) Save(fingerprint string, result *ParseResult) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(c.dir, parseCachePrefix+"*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if err := writeCachedDataset(tmp, cachedDataset{
		Version:     parseCacheVersion,
		Fingerprint: fingerprint,
		ParsedAt:    time.Now().UTC(),
		Result:      *result,
	}); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	path := c.path(fingerprint)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	c.prune(fingerprint)
	return path, nil
}

func writeCachedDataset(f *os.File, rec cachedDataset) error {
	zw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		f.Close()
		return err
	}
	encErr := gob.NewEncoder(zw).Encode(rec)
	closeErr := zw.Close()
	fileErr := f.Close()
	return errors.Join(encErr, closeErr, fileErr)
}

func (c *ParseCache) prune(keep string) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	current := filepath.Base(c.path(keep))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == current || !strings.HasPrefix(name, parseCachePrefix) || !strings.HasSuffix(name, ".gob.gz") {
			continue
		}
		_ = os.Remove(filepath.Join(c.dir, name))
	}
}
