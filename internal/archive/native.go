package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog/log"

	"zipvault/internal/config"
	"zipvault/internal/pathmatch"
	"zipvault/internal/walker"
)

// NativeZip is the dependency-free fallback: an in-process streaming
// ZIP writer. Single-threaded, one entry's I/O in flight at a time, so
// resident memory stays flat no matter how large the tree is. Entries
// that vanish or become unreadable between the scan and the write are
// skipped with a warning rather than failing the run.
type NativeZip struct {
	matcher *pathmatch.Matcher
}

func NewNativeZip(matcher *pathmatch.Matcher) NativeZip {
	return NativeZip{matcher: matcher}
}

func (s NativeZip) Create(entries iter.Seq[walker.Entry], cfg config.Config, outPath string) error {
	outFile, err := os.Create(outPath) //nolint:gosec // archive path is computed by the executor
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zipWriter := zip.NewWriter(outFile)
	zipWriter.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, cfg.ZipLevel)
	})

	for entry := range entries {
		name := ArcName(entry.Path, cfg.Sources, s.matcher)
		if entry.Dir {
			if err := writeDirEntry(zipWriter, name); err != nil {
				_ = zipWriter.Close()
				_ = outFile.Close()
				return err
			}
			continue
		}
		if err := s.writeFileEntry(zipWriter, entry.Path, name); err != nil {
			_ = zipWriter.Close()
			_ = outFile.Close()
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		_ = outFile.Close()
		return fmt.Errorf("close zip writer: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

// writeDirEntry records a zero-length member with directory mode bits
// so empty directories survive extraction.
func writeDirEntry(zipWriter *zip.Writer, name string) error {
	header := &zip.FileHeader{
		Name:   name + "/",
		Method: zip.Store,
	}
	header.SetMode(fs.ModeDir | 0o775)
	if _, err := zipWriter.CreateHeader(header); err != nil {
		return fmt.Errorf("write dir entry %s: %w", name, err)
	}
	return nil
}

// writeFileEntry streams one file into the archive. Vanished or
// permission-denied files are skipped, never fatal: the tree may have
// changed since the scan pass.
func (s NativeZip) writeFileEntry(zipWriter *zip.Writer, path, name string) error {
	sourceFile, err := os.Open(path) //nolint:gosec // path was produced by the walker
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("file vanished since scan, skipping")
			return nil
		}
		if os.IsPermission(err) {
			log.Warn().Str("path", path).Err(err).Msg("permission denied, skipping")
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = sourceFile.Close() }()

	info, err := sourceFile.Stat()
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("stat failed, skipping")
		return nil
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	entryWriter, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(entryWriter, sourceFile); err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return nil
}
