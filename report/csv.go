package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// CSV EXPORT - Semicolon-separated, UTF-8 BOM for spreadsheet apps
// =============================================================================

// Status is the bookkeeping row written when an incremental pass found no
// new issues, so the export still tells HR where processing stands.
type Status struct {
	LastDate         string
	CompleteDays     int
	LastAnalysisTime string
}

// WriteCSV writes the issue export. In incremental mode each row carries a
// NEW/existing marker, and an empty pass writes the status row instead.
func WriteCSV(w io.Writer, issues []attendance.Issue, incremental bool, status *Status) error {
	// Excel needs the BOM to pick UTF-8.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := []string{"date", "type", "minutes", "description", "window", "calculation"}
	if incremental {
		header = append(header, "status")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	if incremental && len(issues) == 0 && status != nil {
		row := []string{
			status.LastDate,
			"status",
			"0",
			fmt.Sprintf("incremental analysis up to date through %s, %d complete work days, last analysis %s",
				status.LastDate, status.CompleteDays, status.LastAnalysisTime),
			"",
			"no new issues in the processed range",
			"system",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv status row: %w", err)
		}
	}

	for _, issue := range issues {
		row := []string{
			issue.Date.Format(attendance.DisplayDate),
			string(issue.Kind),
			strconv.Itoa(issue.Minutes),
			issue.Description,
			issue.TimeRange,
			issue.Calculation,
		}
		if incremental {
			marker := "existing"
			if issue.New {
				marker = "[NEW] found this run"
			}
			row = append(row, marker)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// SaveCSV backs up any previous export at path, then writes a fresh one.
func SaveCSV(path string, issues []attendance.Issue, incremental bool, status *Status) error {
	if _, err := BackupWithTimestamp(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, issues, incremental, status); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}
