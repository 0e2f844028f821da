package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zipvault/internal/config"
	"zipvault/internal/walker"
)

func TestRecorderLifecycle(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "backup_2026-08-30T10-30-00.zip")
	cfg := config.Config{
		Sources:         []string{"/data/docs"},
		ExcludedDirs:    []string{"/data/docs/cache"},
		PreferredFormat: config.FormatZip,
		ZipLevel:        6,
		SevenZipLevel:   7,
		Threads:         3,
	}
	totals := walker.Totals{Files: 2, Bytes: 30}

	recorder := NewRecorder(outPath)
	now := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)
	if err := recorder.Begin(cfg, totals, config.FormatZip, now); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	running := readManifest(t, outPath)
	if running.Status != StatusRunning {
		t.Fatalf("status after Begin = %q", running.Status)
	}
	if running.Output != outPath || running.CreatedAt != "2026-08-30T10:30:00" {
		t.Fatalf("unexpected begin record: %+v", running)
	}
	if running.Totals.Files != 2 || running.Totals.Bytes != 30 || running.ThreadsHint != 3 {
		t.Fatalf("unexpected begin record: %+v", running)
	}
	if running.ElapsedSeconds != 0 || running.OutputSizeBytes != 0 {
		t.Fatalf("completion fields set too early: %+v", running)
	}

	if err := recorder.Complete(1234560*time.Microsecond, 4096); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	done := readManifest(t, outPath)
	if done.Status != StatusOK {
		t.Fatalf("status after Complete = %q", done.Status)
	}
	if done.ElapsedSeconds != 1.23 {
		t.Fatalf("elapsed = %v, want 1.23", done.ElapsedSeconds)
	}
	if done.OutputSizeBytes != 4096 {
		t.Fatalf("output size = %d", done.OutputSizeBytes)
	}
}

func TestManifestIsIndentedJSON(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "b.zip")
	recorder := NewRecorder(outPath)
	if err := recorder.Begin(config.Config{PreferredFormat: config.FormatZip}, walker.Totals{}, config.FormatZip, time.Now()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	data, err := os.ReadFile(ManifestPath(outPath))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"status\"") {
		t.Fatalf("manifest not human-readable indented:\n%s", data)
	}
	if !json.Valid(data) {
		t.Fatalf("manifest is not valid json")
	}
}
