package archive

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"

	"golang.org/x/text/encoding/unicode"

	"zipvault/internal/walker"
)

// listEncoding selects the text encoding of a 7-Zip listfile together
// with the -scs charset flag announcing it to the tool.
type listEncoding struct {
	name    string
	scsFlag string
}

var (
	listUTF8    = listEncoding{name: "utf-8", scsFlag: "-scsUTF-8"}
	listUTF16LE = listEncoding{name: "utf-16le", scsFlag: "-scsUTF-16LE"}
)

// writeListFile materializes the entry sequence into a listfile at
// path, one path per line, newline-terminated, in the given encoding.
// Paths are written as literal lines with no quoting or escaping.
func writeListFile(path string, entries iter.Seq[walker.Entry], enc listEncoding) error {
	listFile, err := os.Create(path) //nolint:gosec // listfile lives next to the archive output
	if err != nil {
		return fmt.Errorf("create listfile: %w", err)
	}

	var sink io.Writer = listFile
	if enc == listUTF16LE {
		// BOM-less little-endian UTF-16, matching the -scsUTF-16LE flag.
		encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
		sink = encoder.Writer(listFile)
	}

	buffered := bufio.NewWriter(sink)
	for entry := range entries {
		if _, err := buffered.WriteString(entry.Path + "\n"); err != nil {
			_ = listFile.Close()
			return fmt.Errorf("write listfile entry: %w", err)
		}
	}
	if err := buffered.Flush(); err != nil {
		_ = listFile.Close()
		return fmt.Errorf("flush listfile: %w", err)
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("close listfile: %w", err)
	}
	return nil
}
