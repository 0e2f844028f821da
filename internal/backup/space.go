package backup

import (
	"fmt"
	"math"

	"golang.org/x/sys/unix"
)

// DefaultSafetyFactor pads the worst-case uncompressed total when
// checking free space, covering archive overhead and files that grow
// between the scan and the write.
const DefaultSafetyFactor = 1.05

// FreeSpace reports the bytes available to this process at dir.
func FreeSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil //nolint:gosec // Bsize is never negative on a mounted filesystem
}

// HasSpace reports whether free bytes cover neededBytes scaled by the
// safety factor. The boundary is inclusive: free space exactly equal to
// the padded requirement passes.
func HasSpace(free uint64, neededBytes int64, factor float64) bool {
	if neededBytes <= 0 {
		return true
	}
	need := uint64(math.Ceil(float64(neededBytes) * factor))
	return free >= need
}
