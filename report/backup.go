package report

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// backupClock is swapped in tests for a fixed timestamp.
var backupClock = time.Now

// BackupWithTimestamp moves an existing file aside to
// "name_YYYYMMDD_HHMMSS.ext" next to the original. A missing file is not
// an error; the returned path is empty when nothing was backed up.
func BackupWithTimestamp(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("stat export: %w", err)
	}

	stamp := backupClock().Format("20060102_150405")
	base, ext := splitExt(path)
	backup := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("backup export: %w", err)
	}
	return backup, nil
}

func splitExt(path string) (string, string) {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i], path[i:]
	}
	return path, ""
}
