/*
Package ledger tracks which attendance dates have already been analyzed.

PURPOSE:
  Source files overlap: a monthly export re-contains the weeks already seen
  in weekly exports. The ledger remembers, per employee, the closed date
  ranges already processed and the monthly forget-punch counters, so each
  calendar date is evaluated exactly once no matter how many files cover it.

KEY CONCEPTS:
  - ProcessedRange: one committed [start, end] span plus its source file
  - EmployeeState:  ranges + monthly forget-punch usage for one employee
  - Document:       the whole persisted ledger, keyed by employee name
  - Ledger:         load/filter/commit operations over a Store

INVARIANTS:
  1. Range filtering merges overlapping and adjacent spans before any
     membership test, so fragmented history never double-counts.
  2. Malformed persisted ranges are skipped, never fatal.
  3. Re-analyzing the same source file replaces its range instead of
     appending a duplicate.

SEE ALSO:
  - store/statefile: the JSON flat-file Store implementation
  - analyzer:        the only writer; commits once per pass
*/
package ledger

import (
	"context"
	"time"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// PERSISTED SHAPE - Must stay wire-compatible with existing state files
// =============================================================================

// ProcessedRange is one committed span. Dates are inclusive on both ends and
// stored as "2006-01-02" strings.
type ProcessedRange struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	SourceFile       string `json:"source_file"`
	LastAnalysisTime string `json:"last_analysis_time"`
}

// Span parses the range bounds. ok is false for malformed dates or an
// inverted range; callers skip such entries.
func (r ProcessedRange) Span() (start, end time.Time, ok bool) {
	start, err := time.Parse(attendance.DateOnly, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(attendance.DateOnly, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// EmployeeState is everything the ledger knows about one employee.
type EmployeeState struct {
	ProcessedRanges  []ProcessedRange `json:"processed_date_ranges"`
	ForgetPunchUsage map[string]int   `json:"forget_punch_usage"`
}

// Usage returns the forget-punch count consumed in a "YYYY-MM" month.
func (s *EmployeeState) Usage(monthKey string) int {
	if s == nil || s.ForgetPunchUsage == nil {
		return 0
	}
	return s.ForgetPunchUsage[monthKey]
}

// Document is the full persisted ledger.
type Document struct {
	Users map[string]*EmployeeState `json:"users"`
}

// NewDocument returns an empty ledger document.
func NewDocument() *Document {
	return &Document{Users: make(map[string]*EmployeeState)}
}

// User returns the state for an employee, or nil when never seen.
func (d *Document) User(name string) *EmployeeState {
	if d == nil || d.Users == nil {
		return nil
	}
	return d.Users[name]
}

// ensureUser returns the state for an employee, creating it if needed.
func (d *Document) ensureUser(name string) *EmployeeState {
	if d.Users == nil {
		d.Users = make(map[string]*EmployeeState)
	}
	s, ok := d.Users[name]
	if !ok {
		s = &EmployeeState{ForgetPunchUsage: make(map[string]int)}
		d.Users[name] = s
	}
	return s
}

// =============================================================================
// STORE - Persistence capability consumed by the ledger
// =============================================================================

// Store loads and saves the whole ledger document. Load returns an empty
// document, not an error, when nothing has been persisted yet.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
