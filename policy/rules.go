/*
Package policy implements the company attendance rule set.

PURPOSE:
  Converts one day's check-in/check-out pair into zero or more Issues under
  a fixed, configurable rule set: late arrival (with lunch deduction and
  forget-punch conversion), eligible overtime rounding, and full-day absence
  suggestions (WFH on Fridays, leave on other weekdays).

KEY CONCEPTS:
  - Rules:    all thresholds, strongly typed and bounds-checked
  - Overrides: optional per-field replacements merged at load time
  - EvaluateDay: pure function, no persisted state touched

QUOTA INTERACTION:
  The evaluator never reads or writes the ledger. The caller supplies the
  current month's forget-punch usage (including increments from earlier days
  in the same pass) and receives back an increment instruction.

SEE ALSO:
  - analyzer: feeds days to EvaluateDay in date order
  - ledger:   persists the monthly forget-punch counters
*/
package policy

import (
	"fmt"
	"time"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// RULES - All thresholds for one evaluation pass
// =============================================================================

// Rules holds every threshold the evaluator consults. Clock fields use the
// "HH:MM" form of the source punch data.
type Rules struct {
	EarliestCheckIn string
	LatestCheckIn   string
	LunchStart      string
	LunchEnd        string

	WorkHours  int
	LunchHours int

	MinOvertimeMinutes       int
	OvertimeIncrementMinutes int

	ForgetPunchAllowancePerMonth int
	ForgetPunchMaxMinutes        int
}

// Default returns the company rule set: check-in cutoff 10:30, lunch
// 12:30–13:30, 8h work + 1h lunch, overtime in whole hours above a one-hour
// minimum, two forget-punch uses per month covering up to 60 late minutes.
func Default() Rules {
	return Rules{
		EarliestCheckIn:              "08:30",
		LatestCheckIn:                "10:30",
		LunchStart:                   "12:30",
		LunchEnd:                     "13:30",
		WorkHours:                    8,
		LunchHours:                   1,
		MinOvertimeMinutes:           60,
		OvertimeIncrementMinutes:     60,
		ForgetPunchAllowancePerMonth: 2,
		ForgetPunchMaxMinutes:        60,
	}
}

// Overrides replaces individual Rules fields. Nil fields keep the base value.
type Overrides struct {
	EarliestCheckIn *string
	LatestCheckIn   *string
	LunchStart      *string
	LunchEnd        *string

	WorkHours  *int
	LunchHours *int

	MinOvertimeMinutes       *int
	OvertimeIncrementMinutes *int

	ForgetPunchAllowancePerMonth *int
	ForgetPunchMaxMinutes        *int
}

// Apply merges overrides onto r and validates the result. The merged rules
// are rejected as a whole if any field is out of bounds; the receiver is
// left untouched.
func (r Rules) Apply(o Overrides) (Rules, error) {
	merged := r
	if o.EarliestCheckIn != nil {
		merged.EarliestCheckIn = *o.EarliestCheckIn
	}
	if o.LatestCheckIn != nil {
		merged.LatestCheckIn = *o.LatestCheckIn
	}
	if o.LunchStart != nil {
		merged.LunchStart = *o.LunchStart
	}
	if o.LunchEnd != nil {
		merged.LunchEnd = *o.LunchEnd
	}
	if o.WorkHours != nil {
		merged.WorkHours = *o.WorkHours
	}
	if o.LunchHours != nil {
		merged.LunchHours = *o.LunchHours
	}
	if o.MinOvertimeMinutes != nil {
		merged.MinOvertimeMinutes = *o.MinOvertimeMinutes
	}
	if o.OvertimeIncrementMinutes != nil {
		merged.OvertimeIncrementMinutes = *o.OvertimeIncrementMinutes
	}
	if o.ForgetPunchAllowancePerMonth != nil {
		merged.ForgetPunchAllowancePerMonth = *o.ForgetPunchAllowancePerMonth
	}
	if o.ForgetPunchMaxMinutes != nil {
		merged.ForgetPunchMaxMinutes = *o.ForgetPunchMaxMinutes
	}
	if err := merged.Validate(); err != nil {
		return Rules{}, err
	}
	return merged, nil
}

// Validate bounds-checks every field. The evaluator itself assumes valid
// rules; this is the single gate.
func (r Rules) Validate() error {
	for name, value := range map[string]string{
		"earliest_checkin": r.EarliestCheckIn,
		"latest_checkin":   r.LatestCheckIn,
		"lunch_start":      r.LunchStart,
		"lunch_end":        r.LunchEnd,
	} {
		if _, err := time.Parse(attendance.ClockTime, value); err != nil {
			return fmt.Errorf("invalid rule %s %q: %w", name, value, err)
		}
	}
	if r.WorkHours <= 0 || r.WorkHours > 24 {
		return fmt.Errorf("invalid rule work_hours %d: must be in 1..24", r.WorkHours)
	}
	if r.LunchHours < 0 || r.LunchHours > 8 {
		return fmt.Errorf("invalid rule lunch_hours %d: must be in 0..8", r.LunchHours)
	}
	if r.MinOvertimeMinutes < 0 {
		return fmt.Errorf("invalid rule min_overtime_minutes %d: must be >= 0", r.MinOvertimeMinutes)
	}
	if r.OvertimeIncrementMinutes <= 0 {
		return fmt.Errorf("invalid rule overtime_increment_minutes %d: must be > 0", r.OvertimeIncrementMinutes)
	}
	if r.ForgetPunchAllowancePerMonth < 0 {
		return fmt.Errorf("invalid rule forget_punch_allowance_per_month %d: must be >= 0", r.ForgetPunchAllowancePerMonth)
	}
	if r.ForgetPunchMaxMinutes < 0 {
		return fmt.Errorf("invalid rule forget_punch_max_minutes %d: must be >= 0", r.ForgetPunchMaxMinutes)
	}
	return nil
}

// clockOn anchors an "HH:MM" rule value to a specific calendar date.
// Rules are validated at load time, so the parse cannot fail here.
func clockOn(date time.Time, clock string) time.Time {
	t, _ := time.Parse(attendance.ClockTime, clock)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
