// Package archive turns a walked entry sequence into a single archive
// file on disk. Three interchangeable strategies share one contract:
// two shell out to the 7-Zip CLI (writing ZIP or 7z), one compresses
// in-process with a streaming Deflate zip writer. All of them consume
// the entry sequence lazily and hold O(1) state regardless of tree
// size.
package archive

import (
	"fmt"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"zipvault/internal/config"
	"zipvault/internal/pathmatch"
	"zipvault/internal/walker"
)

// Strategy produces outPath from the walked entries. On failure the
// partially written archive may remain on disk; the caller owns its
// cleanup. Implementations may range over entries more than once (the
// walker's sequences are re-entrant) but never buffer them in full.
type Strategy interface {
	Create(entries iter.Seq[walker.Entry], cfg config.Config, outPath string) error
}

// ToolLocator reports where the external compressor lives, if anywhere.
// Injectable so callers and tests can decide tool presence without
// probing the real system.
type ToolLocator func() (string, bool)

// sevenZipCandidates are fixed install locations probed before the
// executable search path. The Windows paths are harmless no-ops
// elsewhere.
var sevenZipCandidates = []string{
	`C:\Program Files\7-Zip\7z.exe`,
	`C:\Program Files (x86)\7-Zip\7z.exe`,
}

// sevenZipNames are binary names tried on the search path, covering the
// classic build, the official standalone Linux build, and the
// reduced-format build.
var sevenZipNames = []string{"7z", "7zz", "7za"}

// LocateSevenZip probes fixed installation paths and then the
// executable search path for a usable 7-Zip binary.
func LocateSevenZip() (string, bool) {
	for _, candidate := range sevenZipCandidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	for _, name := range sevenZipNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// ArcName computes an entry's in-archive name: the path relative to the
// parent of the longest configured source root containing it, so each
// root keeps its own directory name as a top-level folder inside the
// archive. Falls back to the bare file name when no root is an ancestor.
func ArcName(path string, roots []string, matcher *pathmatch.Matcher) string {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}

	// Longest root first so nested roots win over their ancestors.
	ordered := make([]string, len(roots))
	copy(ordered, roots)
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	for _, root := range ordered {
		if matcher.IsUnder(resolved, root) {
			if rel, err := filepath.Rel(filepath.Dir(root), resolved); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.Base(resolved)
}

// ProcessError reports an external compressor invocation that exited
// non-zero, carrying its captured output for diagnostics.
type ProcessError struct {
	Tool     string
	ExitCode int
	Output   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}
