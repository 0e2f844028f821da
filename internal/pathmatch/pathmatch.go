// Package pathmatch decides whether a filesystem path lives inside
// another. Exclusion checks run once per directory entry during a walk,
// so repeated lookups for the same path dominate; normalization results
// are memoized behind a bounded cache.
package pathmatch

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const cacheLimit = 4096

// caseInsensitive reports whether path comparison should fold case on
// this platform (Windows and the default macOS filesystem).
var caseInsensitive = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// Matcher normalizes paths and answers containment queries. The zero
// value is not usable; construct with New. Safe for concurrent use.
type Matcher struct {
	mu    sync.Mutex
	cache map[string]string
}

func New() *Matcher {
	return &Matcher{cache: make(map[string]string, 64)}
}

// Normalize returns the canonical comparison form of a path: cleaned of
// redundant separators and dot segments, case-folded on platforms whose
// filesystems compare case-insensitively. Idempotent: normalizing an
// already-normalized path returns it unchanged.
func (m *Matcher) Normalize(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.cache[path]; ok {
		return cached
	}

	normalized := filepath.Clean(filepath.FromSlash(path))
	if caseInsensitive {
		normalized = strings.ToLower(normalized)
	}

	if len(m.cache) >= cacheLimit {
		// Duplicate queries dominate; a full reset at capacity keeps the
		// map bounded without tracking recency.
		m.cache = make(map[string]string, 64)
	}
	m.cache[path] = normalized
	return normalized
}

// IsUnder reports whether child is parent itself or lies anywhere
// beneath it, comparing normalized forms on separator boundaries.
// It never fails: paths that cannot be meaningfully compared (for
// example different drives) simply report false.
func (m *Matcher) IsUnder(child, parent string) bool {
	childNorm := m.Normalize(child)
	parentNorm := m.Normalize(parent)
	if childNorm == "" || parentNorm == "" {
		return false
	}
	if childNorm == parentNorm {
		return true
	}

	separator := string(filepath.Separator)
	if !strings.HasSuffix(parentNorm, separator) {
		parentNorm += separator
	}
	return strings.HasPrefix(childNorm, parentNorm)
}
