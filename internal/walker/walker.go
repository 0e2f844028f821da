// Package walker produces lazy, pruned traversals of directory trees.
// Two passes back a backup run: a counting pass for totals and space
// checking, and an entry pass consumed by an archive strategy. Both are
// re-entrant; every call starts a fresh traversal with no shared cursor.
package walker

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"zipvault/internal/pathmatch"
	"zipvault/internal/progress"
)

// progressInterval is the number of file entries between observer
// notifications during a walk.
const progressInterval = 1000

// Entry is one filesystem object discovered by a walk. Directories are
// emitted so empty directory structure survives into the archive; files
// carry only their path, with size and mode read lazily by whoever
// consumes the entry.
type Entry struct {
	Path string
	Dir  bool
}

// Totals is a snapshot of what a scan pass saw. The entry pass runs
// later and the tree may change in between; totals are used for space
// checking and reporting, never as a hard count of archived entries.
type Totals struct {
	Files int
	Bytes int64
}

// Walker traverses source roots top-down, pruning excluded subtrees
// before descending into them.
type Walker struct {
	matcher   *pathmatch.Matcher
	observers []progress.Observer
}

func New(matcher *pathmatch.Matcher, observers ...progress.Observer) *Walker {
	return &Walker{matcher: matcher, observers: observers}
}

// ScanTotals counts the files and bytes a walk over the same roots and
// exclusions would visit. Files that cannot be stat'd (deleted or
// unreadable mid-scan) are skipped silently.
func (w *Walker) ScanTotals(roots, excluded []string) Totals {
	var totals Totals
	for _, root := range roots {
		w.scanDir(root, excluded, &totals)
	}
	return totals
}

func (w *Walker) scanDir(dir string, excluded []string, totals *Totals) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var subdirs []string
	for _, dirEntry := range dirEntries {
		childPath := filepath.Join(dir, dirEntry.Name())
		if dirEntry.IsDir() {
			if !w.isExcluded(childPath, excluded) {
				subdirs = append(subdirs, childPath)
			}
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		totals.Files++
		totals.Bytes += info.Size()
	}
	for _, subdir := range subdirs {
		w.scanDir(subdir, excluded, totals)
	}
}

// Walk returns a lazy pre-order sequence over every non-excluded
// directory and file beneath the roots. Each root is yielded first so
// the archive preserves the root directory itself as an entry. Every
// range over the returned sequence is an independent traversal.
//
// Unreadable directories skip their subtree with a warning rather than
// aborting the walk. Siblings keep directory-listing order; paths
// reachable from overlapping roots are yielded once per root, not
// de-duplicated.
func (w *Walker) Walk(roots, excluded []string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		fileCount := 0
		for _, root := range roots {
			if !yield(Entry{Path: root, Dir: true}) {
				return
			}
			if !w.walkDir(root, excluded, &fileCount, yield) {
				return
			}
		}
	}
}

// walkDir yields the children of dir, directories before files, then
// descends. Returns false when the consumer stopped the sequence.
func (w *Walker) walkDir(dir string, excluded []string, fileCount *int, yield func(Entry) bool) bool {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("skipping unreadable directory")
		return true
	}

	var subdirs []string
	for _, dirEntry := range dirEntries {
		childPath := filepath.Join(dir, dirEntry.Name())
		if dirEntry.IsDir() {
			if w.isExcluded(childPath, excluded) {
				continue
			}
			subdirs = append(subdirs, childPath)
			if !yield(Entry{Path: childPath, Dir: true}) {
				return false
			}
			continue
		}
		*fileCount++
		if *fileCount%progressInterval == 0 {
			progress.Notify(w.observers, fmt.Sprintf("%d files queued...", *fileCount))
		}
		if !yield(Entry{Path: childPath}) {
			return false
		}
	}

	for _, subdir := range subdirs {
		if !w.walkDir(subdir, excluded, fileCount, yield) {
			return false
		}
	}
	return true
}

func (w *Walker) isExcluded(path string, excluded []string) bool {
	for _, ex := range excluded {
		if w.matcher.IsUnder(path, ex) {
			return true
		}
	}
	return false
}
