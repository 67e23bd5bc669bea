package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/ytget/dlcore/internal/command/errs"
)

// spaceBuffer is the safety margin applied to a required-bytes figure
// before comparing it against free space, matching the original's 10%
// cushion.
const spaceBuffer = 1.1

// CheckFreeSpace verifies that the filesystem holding path has at least
// requiredBytes free, after a 10% safety buffer. requiredBytes may be zero
// when the caller cannot predict size; the check then degrades to a
// nonzero-free sanity check. The checked path is path itself if it exists,
// otherwise its immediate parent; no further ancestors are tried.
func CheckFreeSpace(path string, requiredBytes uint64) error {
	checkPath := path
	if _, err := os.Stat(path); err != nil {
		checkPath = filepath.Dir(path)
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(checkPath, &stat); err != nil {
		return errs.Newf(errs.PersistenceError, "failed to stat filesystem: %v", err)
	}

	available := stat.Bavail * uint64(stat.Bsize)

	if requiredBytes == 0 {
		if available == 0 {
			return errs.New(errs.InsufficientSpace, "no free space available")
		}
		return nil
	}

	requiredWithBuffer := uint64(float64(requiredBytes) * spaceBuffer)
	if available < requiredWithBuffer {
		return errs.Newf(errs.InsufficientSpace, "required %s, available %s",
			FormatBytes(requiredWithBuffer), FormatBytes(available))
	}
	return nil
}

// FormatBytes renders n in the largest whole unit that keeps it >= 1, using
// 1024-based units and two decimal places, matching the original's
// human-readable error-message formatting.
func FormatBytes(n uint64) string {
	const unit = 1024.0
	units := []string{"B", "KB", "MB", "GB", "TB"}

	value := float64(n)
	i := 0
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.2f %s", value, units[i])
}
