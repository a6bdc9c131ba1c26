/*
Package attendance defines the domain model for punch-clock data.

PURPOSE:
  Raw punch-clock exports arrive as per-line records: a scheduled slot
  (check-in or check-out) plus an optional actual punch time. This package
  turns those records into per-calendar-date WorkDay values and defines the
  Issue type produced by policy evaluation.

KEY CONCEPTS:
  - Record:  one punch-clock line (check-in or check-out) for one date
  - WorkDay: at most one check-in and one check-out for a calendar date
  - Issue:   an HR-actionable finding (late, overtime, forget-punch, ...)

INVARIANTS:
  1. A WorkDay's slots are each populated from at most one Record; if a
     kind repeats for the same date, the last record wins.
  2. Issues are immutable once created. The New flag is a display-only
     tag set by the caller and carries no state semantics.

SEE ALSO:
  - policy:   converts a WorkDay into Issues
  - analyzer: orchestrates evaluation over many WorkDays
*/
package attendance

import "time"

// =============================================================================
// DATE / TIME CONVENTIONS
// =============================================================================

const (
	// DateOnly is the wire format for calendar dates (ledger, filenames).
	DateOnly = "2006-01-02"

	// DisplayDate is the format used in reports and exports.
	DisplayDate = "2006/01/02"

	// PunchTime is the format of punch timestamps in source files.
	PunchTime = "2006/01/02 15:04"

	// ClockTime is the format of rule thresholds like "10:30".
	ClockTime = "15:04"
)

// Day truncates a timestamp to its calendar date (midnight UTC).
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthKey returns the "YYYY-MM" quota key for a date.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// =============================================================================
// RECORD - One punch-clock line
// =============================================================================

type RecordKind string

const (
	KindCheckIn  RecordKind = "check-in"
	KindCheckOut RecordKind = "check-out"
)

// Record is a single punch event. Scheduled is always set (it carries the
// date); Actual is nil when the employee did not punch.
type Record struct {
	Date       time.Time // calendar date, midnight UTC
	Kind       RecordKind
	Scheduled  *time.Time
	Actual     *time.Time
	CardNumber string
	Source     string
	Status     string
	Note       string
}

// =============================================================================
// WORKDAY - Per-date aggregation of at most one check-in and one check-out
// =============================================================================

type WorkDay struct {
	Date      time.Time
	CheckIn   *Record
	CheckOut  *Record
	IsFriday  bool
	IsHoliday bool
}

// Complete reports whether both slots carry a record. Only complete days are
// fed to policy evaluation and recorded in the ledger.
func (d WorkDay) Complete() bool {
	return d.CheckIn != nil && d.CheckOut != nil
}

// FullyAbsent reports whether the day has no usable punches: either slot is
// missing entirely, or both records exist but neither carries an actual time.
func (d WorkDay) FullyAbsent() bool {
	if d.CheckIn == nil || d.CheckIn.Actual == nil {
		return true
	}
	if d.CheckOut == nil || d.CheckOut.Actual == nil {
		return true
	}
	return false
}

// =============================================================================
// ISSUE - An HR-actionable finding
// =============================================================================

type IssueKind string

const (
	IssueLate         IssueKind = "LATE"
	IssueOvertime     IssueKind = "OVERTIME"
	IssueForgetPunch  IssueKind = "FORGET_PUNCH"
	IssueSuggestWFH   IssueKind = "WFH"
	IssueSuggestLeave IssueKind = "WEEKDAY_LEAVE"
)

// Issue is produced only by the policy evaluator and never mutated after
// creation, except for the display-only New tag set by the orchestrator.
type Issue struct {
	Date        time.Time
	Kind        IssueKind
	Minutes     int
	Description string

	// TimeRange is the affected window, e.g. "10:30~13:35". Optional.
	TimeRange string

	// Calculation is the arithmetic trace behind Minutes. Optional.
	Calculation string

	// New marks an issue as discovered by this pass (vs. previously
	// recorded). Display only; no state semantics.
	New bool
}

// =============================================================================
// HOLIDAY CAPABILITY - Supplied by the caller
// =============================================================================

// Calendar reports whether a date is a public holiday. The engine consumes
// this capability; it never retries or caches it itself.
type Calendar interface {
	IsHoliday(date time.Time) bool
}

// NoHolidays is the zero calendar: no date is a holiday.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(time.Time) bool { return false }
