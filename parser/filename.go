package parser

import (
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// =============================================================================
// FILENAME - Employee and month span encoded in the export name
// =============================================================================

// Export names follow {YYYYMM}[-{YYYYMM}]-{NAME}-出勤資料.txt; a single
// month covers that whole month, a pair covers first month start through
// last month end.
var fileNamePattern = regexp.MustCompile(`^(\d{6})(?:-(\d{6}))?-(.+?)-出勤資料\.txt$`)

// ErrBadFileName is returned for names outside the export convention.
var ErrBadFileName = errors.New("file name does not match the export convention")

// FileMeta is what a well-formed export name declares about its contents.
type FileMeta struct {
	Employee string
	Start    time.Time // first day of the first month
	End      time.Time // last day of the last month
	BaseName string
}

// ParseFileName extracts the employee and the declared month span from an
// export path.
func ParseFileName(path string) (FileMeta, error) {
	base := filepath.Base(path)
	m := fileNamePattern.FindStringSubmatch(base)
	if m == nil {
		return FileMeta{}, ErrBadFileName
	}

	start, ok := monthStart(m[1])
	if !ok {
		return FileMeta{}, ErrBadFileName
	}
	endMonth := m[1]
	if m[2] != "" {
		endMonth = m[2]
	}
	endStart, ok := monthStart(endMonth)
	if !ok || endStart.Before(start) {
		return FileMeta{}, ErrBadFileName
	}

	return FileMeta{
		Employee: m[3],
		Start:    start,
		End:      endStart.AddDate(0, 1, -1), // last day of that month
		BaseName: base,
	}, nil
}

// monthStart turns "YYYYMM" into the first day of the month, midnight UTC.
func monthStart(s string) (time.Time, bool) {
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(s[4:6])
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}
