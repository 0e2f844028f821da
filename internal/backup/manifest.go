package backup

import (
	"math"
	"time"

	"github.com/google/uuid"

	"zipvault/internal/config"
	"zipvault/internal/file"
	"zipvault/internal/walker"
)

const (
	StatusRunning = "running"
	StatusOK      = "ok"
)

// ManifestTotals echoes the scan snapshot into the manifest.
type ManifestTotals struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

type levelSetting struct {
	Level int `json:"level"`
}

// Manifest is the JSON side-file describing one backup job. It is
// written once at job start with status "running" and rewritten once at
// successful completion with status "ok". A crash between the two
// leaves it in "running" state: the recorder never writes a failure
// status, which is documented behavior rather than an oversight.
type Manifest struct {
	Output          string         `json:"output"`
	JobID           string         `json:"job_id"`
	CreatedAt       string         `json:"created_at"`
	PreferredFormat string         `json:"preferred_format"`
	UsedFormat      string         `json:"used_format"`
	Sources         []string       `json:"sources"`
	Excluded        []string       `json:"excluded"`
	Totals          ManifestTotals `json:"totals"`
	Zip             levelSetting   `json:"zip"`
	SevenZip        levelSetting   `json:"7z"`
	ThreadsHint     int            `json:"threads_hint"`
	Status          string         `json:"status"`
	ElapsedSeconds  float64        `json:"elapsed_seconds,omitempty"`
	OutputSizeBytes int64          `json:"output_size_bytes,omitempty"`
}

// ManifestPath returns the side-file location for an archive path.
func ManifestPath(archivePath string) string {
	return archivePath + ".manifest.json"
}

// Recorder owns the manifest lifecycle for a single job.
type Recorder struct {
	outPath  string
	path     string
	manifest Manifest
}

// NewRecorder prepares a recorder for the archive at outPath. Nothing
// is written until Begin.
func NewRecorder(outPath string) *Recorder {
	return &Recorder{outPath: outPath, path: ManifestPath(outPath)}
}

// Begin writes the initial running record: configuration echo, totals,
// and the formats in play.
func (r *Recorder) Begin(cfg config.Config, totals walker.Totals, usedFormat string, now time.Time) error {
	r.manifest = Manifest{
		Output:          r.outPath,
		JobID:           uuid.NewString(),
		CreatedAt:       now.Format("2006-01-02T15:04:05"),
		PreferredFormat: cfg.PreferredFormat,
		UsedFormat:      usedFormat,
		Sources:         cfg.Sources,
		Excluded:        cfg.ExcludedDirs,
		Totals:          ManifestTotals{Files: totals.Files, Bytes: totals.Bytes},
		Zip:             levelSetting{Level: cfg.ZipLevel},
		SevenZip:        levelSetting{Level: cfg.SevenZipLevel},
		ThreadsHint:     cfg.Threads,
		Status:          StatusRunning,
	}
	return file.WriteJSONAtomic(r.path, r.manifest)
}

// Complete rewrites the manifest as the final ok record with the
// elapsed time (rounded to hundredths of a second) and the archive's
// final size.
func (r *Recorder) Complete(elapsed time.Duration, outputSize int64) error {
	r.manifest.Status = StatusOK
	r.manifest.ElapsedSeconds = math.Round(elapsed.Seconds()*100) / 100
	r.manifest.OutputSizeBytes = outputSize
	return file.WriteJSONAtomic(r.path, r.manifest)
}
