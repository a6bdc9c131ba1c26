/*
Package parser reads punch-clock export files into attendance records.

PURPOSE:
  Exports are tab-separated text: one line per scheduled punch slot, with
  the scheduled time, the actual punch time (blank when the employee did
  not punch), the slot kind, and trailing bookkeeping columns. Some tools
  prepend line-number markers like "12→"; those are stripped.

KEY BEHAVIORS:
  - The header line is skipped.
  - Lines with no scheduled time or an unknown slot kind are skipped, with
    a count surfaced to the caller. A malformed line never fails a file.
  - File names encode the employee and month span; see filename.go.

SEE ALSO:
  - attendance: the Record type this package produces
  - analyzer:   drives parsing as the first pipeline stage
*/
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fhr/attendance-engine/attendance"
)

const fieldCount = 9

// Slot kinds as they appear in the export.
const (
	kindCheckIn  = "上班"
	kindCheckOut = "下班"
)

var lineMarker = regexp.MustCompile(`^\s*\d+→`)

// Result carries the parsed records plus line accounting for logs.
type Result struct {
	Records []attendance.Record
	Skipped int
	Total   int
}

// ParseFile reads one export file from disk.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open punch file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an export from r. The first line is the header.
func Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Total++
		rec, ok := ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read punch file: %w", err)
	}
	return res, nil
}

// ParseLine parses one export line. ok is false when the line carries no
// scheduled time or an unknown slot kind.
//
// Field layout: scheduled, actual, kind, card number, source, status,
// processed, operation, note. Short lines are right-padded with blanks.
func ParseLine(line string) (attendance.Record, bool) {
	line = lineMarker.ReplaceAllString(line, "")
	fields := strings.Split(line, "\t")
	for len(fields) < fieldCount {
		fields = append(fields, "")
	}

	scheduledStr := strings.TrimSpace(fields[0])
	actualStr := strings.TrimSpace(fields[1])
	kindStr := strings.TrimSpace(fields[2])

	var kind attendance.RecordKind
	switch kindStr {
	case kindCheckIn:
		kind = attendance.KindCheckIn
	case kindCheckOut:
		kind = attendance.KindCheckOut
	default:
		return attendance.Record{}, false
	}

	scheduled, err := time.Parse(attendance.PunchTime, scheduledStr)
	if err != nil {
		return attendance.Record{}, false
	}

	rec := attendance.Record{
		Date:       attendance.Day(scheduled),
		Kind:       kind,
		Scheduled:  &scheduled,
		CardNumber: strings.TrimSpace(fields[3]),
		Source:     strings.TrimSpace(fields[4]),
		Status:     strings.TrimSpace(fields[5]),
		Note:       strings.TrimSpace(fields[8]),
	}
	if actual, err := time.Parse(attendance.PunchTime, actualStr); err == nil {
		rec.Actual = &actual
	}
	return rec, true
}
