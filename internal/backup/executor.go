// Package backup orchestrates one end-to-end archive run: scan totals,
// pre-flight space check, strategy selection, manifest lifecycle, and
// cleanup of partial output on failure.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"zipvault/internal/archive"
	"zipvault/internal/config"
	"zipvault/internal/pathmatch"
	"zipvault/internal/progress"
	"zipvault/internal/walker"
)

// timestampLayout keeps archive names filesystem-safe everywhere: no
// colon characters.
const timestampLayout = "2006-01-02T15-04-05"

// Executor drives a single backup job. Construct with New; a single
// Executor assumes single-job-at-a-time use against its output
// directory and performs no locking.
type Executor struct {
	cfg       config.Config
	observers []progress.Observer
	matcher   *pathmatch.Matcher
	walker    *walker.Walker

	// Injection points for tests. Defaults probe the real system.
	locateTool archive.ToolLocator
	freeSpace  func(dir string) (uint64, error)
	now        func() time.Time
}

func New(cfg config.Config, observers ...progress.Observer) *Executor {
	matcher := pathmatch.New()
	return &Executor{
		cfg:        cfg,
		observers:  observers,
		matcher:    matcher,
		walker:     walker.New(matcher, observers...),
		locateTool: archive.LocateSevenZip,
		freeSpace:  FreeSpace,
		now:        time.Now,
	}
}

// Run executes the whole pipeline and returns the path of the archive
// it produced. On any failure after the archive file has been created,
// the partial file is deleted before the error propagates; the manifest
// is left in its running state in that case.
func (e *Executor) Run() (string, error) {
	e.notify("starting backup (hybrid zip/7z)...")

	totals := e.walker.ScanTotals(e.cfg.Sources, e.cfg.ExcludedDirs)
	if totals.Files == 0 || totals.Bytes == 0 {
		return "", ErrNothingToBackup
	}

	free, err := e.freeSpace(e.cfg.OutputDir)
	if err != nil {
		return "", err
	}
	need := uint64(float64(totals.Bytes) * DefaultSafetyFactor)
	e.notify(fmt.Sprintf("space needed (worst case): %s | free: %s", humanize.Bytes(need), humanize.Bytes(free)))
	if !HasSpace(free, totals.Bytes, DefaultSafetyFactor) {
		return "", ErrInsufficientSpace
	}

	strategy, usedFormat := e.pickStrategy()
	outName := fmt.Sprintf("%s_%s.%s", e.cfg.NamePrefix, e.now().Format(timestampLayout), usedFormat)
	outPath := filepath.Join(e.cfg.OutputDir, outName)

	recorder := NewRecorder(outPath)
	if err := recorder.Begin(e.cfg, totals, usedFormat, e.now()); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	started := time.Now()
	if err := strategy.Create(e.walker.Walk(e.cfg.Sources, e.cfg.ExcludedDirs), e.cfg, outPath); err != nil {
		e.removePartial(outPath)
		return "", fmt.Errorf("archive creation failed: %w", err)
	}
	elapsed := time.Since(started)

	outputSize := int64(0)
	if info, err := os.Stat(outPath); err == nil {
		outputSize = info.Size()
	}

	e.notify(fmt.Sprintf("archive: %s", outPath))
	e.notify(fmt.Sprintf("final size: %s (source ~%s)", humanize.Bytes(uint64(outputSize)), humanize.Bytes(uint64(totals.Bytes)))) //nolint:gosec // sizes are non-negative
	e.notify(fmt.Sprintf("duration: %dm %.1fs", int(elapsed.Minutes()), elapsed.Seconds()-float64(int(elapsed.Minutes()))*60))

	if err := recorder.Complete(elapsed, outputSize); err != nil {
		return "", fmt.Errorf("finalize manifest: %w", err)
	}
	return outPath, nil
}

// pickStrategy prefers the external tool whenever it is discoverable,
// honoring the configured format preference. Without the tool the
// native fallback is used, which only speaks ZIP.
func (e *Executor) pickStrategy() (archive.Strategy, string) {
	tool, found := e.locateTool()
	if e.cfg.PreferredFormat == config.FormatSevenZip {
		if found {
			return archive.ExternalSevenZip{Tool: tool}, config.FormatSevenZip
		}
		log.Warn().Msg("7z tool not found, falling back to native zip")
		return archive.NewNativeZip(e.matcher), config.FormatZip
	}
	if found {
		return archive.ExternalZip{Tool: tool}, config.FormatZip
	}
	return archive.NewNativeZip(e.matcher), config.FormatZip
}

func (e *Executor) removePartial(outPath string) {
	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("path", outPath).Err(err).Msg("partial archive cleanup failed")
	}
}

func (e *Executor) notify(message string) {
	progress.Notify(e.observers, message)
}
