/*
Package report renders analysis results for humans and spreadsheets.

PURPOSE:
  A pass produces Issues; HR wants a readable summary and a CSV they can
  file leave/overtime requests from. This package owns both renderings
  plus the timestamped backup of previous exports.

SEE ALSO:
  - csv.go:    semicolon-separated export with UTF-8 BOM
  - backup.go: keep the previous export under a timestamped name
*/
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// TALLY
// =============================================================================

// Totals counts issue days per kind and accumulates claimable minutes.
type Totals struct {
	ForgetPunch int
	Late        int
	Overtime    int
	Leave       int
	WFH         int

	LateMinutes     int
	OvertimeMinutes int
}

func Tally(issues []attendance.Issue) Totals {
	var t Totals
	for _, issue := range issues {
		switch issue.Kind {
		case attendance.IssueForgetPunch:
			t.ForgetPunch++
		case attendance.IssueLate:
			t.Late++
			t.LateMinutes += issue.Minutes
		case attendance.IssueOvertime:
			t.Overtime++
			t.OvertimeMinutes += issue.Minutes
		case attendance.IssueSuggestLeave:
			t.Leave++
		case attendance.IssueSuggestWFH:
			t.WFH++
		}
	}
	return t
}

// Hours renders minutes as decimal hours, e.g. 90 -> "1.5".
func Hours(minutes int) string {
	return decimal.NewFromInt(int64(minutes)).
		Div(decimal.NewFromInt(60)).
		Round(2).
		String()
}

// =============================================================================
// TEXT REPORT
// =============================================================================

// Data is everything the text report needs from one pass.
type Data struct {
	Employee          string
	TotalCompleteDays int
	EvaluatedDays     int
	SkippedDays       int
	EvaluatedDates    []time.Time
	Issues            []attendance.Issue
	Persisted         bool
}

// Render writes the human-readable pass report.
func Render(w io.Writer, data Data) error {
	var b strings.Builder

	fmt.Fprintf(&b, "## Incremental analysis\n\n")
	fmt.Fprintf(&b, "- Employee: %s\n", data.Employee)
	fmt.Fprintf(&b, "- Complete work days: %d\n", data.TotalCompleteDays)
	fmt.Fprintf(&b, "- Newly evaluated: %d\n", data.EvaluatedDays)
	fmt.Fprintf(&b, "- Skipped (already processed): %d\n", data.SkippedDays)
	if len(data.EvaluatedDates) > 0 {
		b.WriteString("- Evaluated dates: " + datePreview(data.EvaluatedDates) + "\n")
	}
	if !data.Persisted {
		b.WriteString("- WARNING: results were not persisted; these dates will re-evaluate next run\n")
	}
	b.WriteString("\n")

	sections := []struct {
		title string
		kinds []attendance.IssueKind
	}{
		{"## Forget-punch requests", []attendance.IssueKind{attendance.IssueForgetPunch}},
		{"## Late arrivals", []attendance.IssueKind{attendance.IssueLate}},
		{"## Overtime claims", []attendance.IssueKind{attendance.IssueOvertime}},
		{"## Suggested leave", []attendance.IssueKind{attendance.IssueSuggestLeave, attendance.IssueSuggestWFH}},
	}
	for _, s := range sections {
		writeSection(&b, s.title, filterKinds(data.Issues, s.kinds))
	}

	t := Tally(data.Issues)
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Forget-punch days: %d\n", t.ForgetPunch)
	fmt.Fprintf(&b, "- Late days: %d (%s h of leave to request)\n", t.Late, Hours(t.LateMinutes))
	fmt.Fprintf(&b, "- Overtime days: %d (%s h claimable)\n", t.Overtime, Hours(t.OvertimeMinutes))
	fmt.Fprintf(&b, "- Weekday leave days: %d\n", t.Leave)
	fmt.Fprintf(&b, "- WFH days: %d\n", t.WFH)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, title string, issues []attendance.Issue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString(title + "\n\n")
	for i, issue := range issues {
		fmt.Fprintf(b, "%d. **%s** - %s\n", i+1, issue.Date.Format(attendance.DisplayDate), issue.Description)
		if issue.TimeRange != "" {
			fmt.Fprintf(b, "   window: %s\n", issue.TimeRange)
		}
		if issue.Calculation != "" {
			fmt.Fprintf(b, "   calculation: %s\n", issue.Calculation)
		}
		b.WriteString("\n")
	}
}

func filterKinds(issues []attendance.Issue, kinds []attendance.IssueKind) []attendance.Issue {
	var out []attendance.Issue
	for _, issue := range issues {
		for _, k := range kinds {
			if issue.Kind == k {
				out = append(out, issue)
				break
			}
		}
	}
	return out
}

// datePreview shows at most the first five dates.
func datePreview(dates []time.Time) string {
	const max = 5
	parts := make([]string, 0, max)
	for i, d := range dates {
		if i == max {
			break
		}
		parts = append(parts, d.Format(attendance.DateOnly))
	}
	s := strings.Join(parts, ", ")
	if len(dates) > max {
		s += fmt.Sprintf(" and %d more", len(dates)-max)
	}
	return s
}
