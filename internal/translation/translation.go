package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"go.uber.org/zap"
)

// DefaultFileName is the conventional name of the mapping file inside a
// mapping directory
const DefaultFileName = "field_translation.json"

// Map translates source column names to display names
type Map map[string]string

// Translate returns the display name for column
func (m Map) Translate(column string) (string, bool) {
	v, ok := m[column]
	return v, ok
}

// Intersects reports whether any of columns has a translation
func (m Map) Intersects(columns []string) bool {
	for _, c := range columns {
		if _, ok := m[c]; ok {
			return true
		}
	}
	return false
}

// Targets returns the set of display names
func (m Map) Targets() map[string]bool {
	out := make(map[string]bool, len(m))
	for _, v := range m {
		out[v] = true
	}
	return out
}

// Keys returns the source names in sorted order
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parse decodes a flat JSON object of string to string
func Parse(data []byte) (Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid translation map: %w", err)
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// Loader reads translation maps through afs, so a mapping location may be
// a local path or any URL afs supports
type Loader struct {
	fs     afs.Service
	logger *zap.Logger
}

// NewLoader creates a Loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fs: afs.New(), logger: logger}
}

// Load reads fileName from dir. When that file is absent it falls back to
// fallbackPath, and when that is absent too it returns an empty map. Only
// a file that exists but cannot be read or decoded is an error.
func (l *Loader) Load(ctx context.Context, dir, fileName, fallbackPath string) (Map, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}

	if dir != "" {
		location := join(dir, fileName)
		if l.exists(ctx, location) {
			return l.read(ctx, location)
		}
		l.logger.Warn("translation file not found, using default",
			zap.String("path", location),
			zap.String("default", fallbackPath))
	}

	if fallbackPath != "" {
		location := normalize(fallbackPath)
		if l.exists(ctx, location) {
			return l.read(ctx, location)
		}
		l.logger.Warn("default translation file not found, views will not be generated",
			zap.String("path", location))
	}
	return Map{}, nil
}

func (l *Loader) exists(ctx context.Context, location string) bool {
	ok, err := l.fs.Exists(ctx, location)
	if err != nil {
		l.logger.Debug("failed to check translation file", zap.String("path", location), zap.Error(err))
		return false
	}
	return ok
}

func (l *Loader) read(ctx context.Context, location string) (Map, error) {
	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", location, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	l.logger.Info("translation map loaded", zap.String("path", location), zap.Int("entries", len(m)))
	return m, nil
}

func isURL(location string) bool {
	return strings.Contains(location, "://")
}

// normalize makes local paths absolute; URLs pass through
func normalize(location string) string {
	if isURL(location) {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return abs
	}
	return location
}

func join(dir, name string) string {
	if isURL(dir) {
		return strings.TrimRight(dir, "/") + "/" + path.Clean(name)
	}
	return normalize(filepath.Join(dir, name))
}
