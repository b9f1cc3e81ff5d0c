package store

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/geneval/internal/genome"
)

// RegionCache keeps gob-serialized annotation regions next to a metadata
// file recording the source they were parsed from:
//
//	{dir}/{base}-{path hash}.gob       (source fingerprint and regions)
//	{dir}/{base}-{path hash}.gob.meta  (source fingerprint and exon feature)
//
// The hash is taken over the absolute source path, so same-named files in
// different directories never share an entry. Both files are replaced by
// rename.
type RegionCache struct {
	dir string
}

// cacheEntry is the gob payload. The fingerprint is stored with the regions
// so a data file can be checked on its own, whatever the meta file says.
type cacheEntry struct {
	SourcePath  string
	SourceSize  int64
	ModTime     time.Time
	ExonFeature string
	Regions     map[string]*genome.GenomicRegion
}

// NewRegionCache creates a region cache rooted at dir.
func NewRegionCache(dir string) *RegionCache {
	return &RegionCache{dir: dir}
}

// sourceKey returns the absolute form of the source path.
func sourceKey(src FileFingerprint) string {
	if abs, err := filepath.Abs(src.Path); err == nil {
		return abs
	}
	return src.Path
}

func (rc *RegionCache) gobPath(src FileFingerprint) string {
	key := sourceKey(src)
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(rc.dir, filepath.Base(key)+"-"+hex.EncodeToString(sum[:])[:16]+".gob")
}

func (rc *RegionCache) metaPath(src FileFingerprint) string {
	return rc.gobPath(src) + ".meta"
}

func (e *cacheEntry) matches(src FileFingerprint, exonFeature string) bool {
	return e.SourcePath == sourceKey(src) &&
		e.SourceSize == src.Size &&
		e.ModTime.Equal(src.ModTime) &&
		e.ExonFeature == exonFeature
}

// Valid checks whether the cached regions match the source file and the exon
// feature type they were parsed with.
func (rc *RegionCache) Valid(src FileFingerprint, exonFeature string) bool {
	meta, err := rc.readMeta(src)
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"source_path", sourceKey(src)},
		{"source_size", strconv.FormatInt(src.Size, 10)},
		{"source_modtime", src.ModTime.UTC().Format(time.RFC3339Nano)},
		{"exon_feature", exonFeature},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(rc.gobPath(src)); err != nil {
		return false
	}
	return true
}

// Load reads cached regions and restores their parent links. It fails if the
// data file was written for another source or exon feature.
func (rc *RegionCache) Load(src FileFingerprint, exonFeature string) (map[string]*genome.GenomicRegion, error) {
	f, err := os.Open(rc.gobPath(src))
	if err != nil {
		return nil, fmt.Errorf("open region cache: %w", err)
	}
	defer f.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(f).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode region cache: %w", err)
	}
	if !entry.matches(src, exonFeature) {
		return nil, fmt.Errorf("region cache %s holds %s (%s), not %s (%s)",
			rc.gobPath(src), entry.SourcePath, entry.ExonFeature, sourceKey(src), exonFeature)
	}
	for _, reg := range entry.Regions {
		reg.Relink()
	}
	return entry.Regions, nil
}

// Write serializes regions parsed from src.
func (rc *RegionCache) Write(regions map[string]*genome.GenomicRegion, src FileFingerprint, exonFeature string) error {
	if err := os.MkdirAll(rc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	entry := cacheEntry{
		SourcePath:  sourceKey(src),
		SourceSize:  src.Size,
		ModTime:     src.ModTime,
		ExonFeature: exonFeature,
		Regions:     regions,
	}
	err := rc.replace(rc.gobPath(src), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(&entry)
	})
	if err != nil {
		return fmt.Errorf("write region cache: %w", err)
	}

	return rc.writeMeta(src, exonFeature)
}

// replace writes a temporary file in the cache directory with fill and
// renames it over path.
func (rc *RegionCache) replace(path string, fill func(*os.File) error) error {
	tmp, err := os.CreateTemp(rc.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Clear removes the cached files for src.
func (rc *RegionCache) Clear(src FileFingerprint) {
	os.Remove(rc.gobPath(src))
	os.Remove(rc.metaPath(src))
}

func (rc *RegionCache) writeMeta(src FileFingerprint, exonFeature string) error {
	lines := []string{
		"source_path=" + sourceKey(src),
		"source_size=" + strconv.FormatInt(src.Size, 10),
		"source_modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"exon_feature=" + exonFeature,
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	err := rc.replace(rc.metaPath(src), func(f *os.File) error {
		_, err := f.WriteString(strings.Join(lines, "\n"))
		return err
	})
	if err != nil {
		return fmt.Errorf("write region cache metadata: %w", err)
	}
	return nil
}

func (rc *RegionCache) readMeta(src FileFingerprint) (map[string]string, error) {
	data, err := os.ReadFile(rc.metaPath(src))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
