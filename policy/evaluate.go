package policy

import (
	"fmt"
	"time"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// OUTCOME - Result of evaluating one day
// =============================================================================

// Outcome carries the issues for one day plus a quota instruction. The caller
// owns the monthly counter; ForgetPunchUsed tells it to increment.
type Outcome struct {
	Issues          []attendance.Issue
	ForgetPunchUsed bool
}

// =============================================================================
// EVALUATION - Pure per-day policy
// =============================================================================

// EvaluateDay applies the rule set to a single day. monthUsage is the
// forget-punch count already consumed in the day's month, including days
// evaluated earlier in the same pass. The function reads no persisted state
// and is deterministic in its inputs.
//
// Decision order:
//  1. fully absent: holiday and weekend days produce nothing; an absent
//     Friday suggests a WFH entry, any other absent weekday a leave entry
//  2. Fridays with punches are exempt from late and overtime checks
//  3. late arrival, with the lunch-hour deduction and, when the remaining
//     lateness is small enough and quota remains, conversion to a
//     forget-punch request
//  4. overtime past the expected end, rounded down to the increment
func EvaluateDay(day attendance.WorkDay, rules Rules, monthUsage int) Outcome {
	var out Outcome

	if day.FullyAbsent() {
		if issue, ok := absenceIssue(day, rules); ok {
			out.Issues = append(out.Issues, issue)
		}
		return out
	}

	// Fridays follow a separate flex arrangement: arrival and departure
	// times are not policed.
	if day.IsFriday {
		return out
	}

	if issue, used, ok := lateIssue(day, rules, monthUsage); ok {
		out.Issues = append(out.Issues, issue)
		out.ForgetPunchUsed = used
	}
	if issue, ok := overtimeIssue(day, rules); ok {
		out.Issues = append(out.Issues, issue)
	}
	return out
}

// absenceIssue handles days without a single usable punch. Holidays and
// weekends are simply non-working days; absent Fridays become WFH
// suggestions and other absent weekdays become leave suggestions.
func absenceIssue(day attendance.WorkDay, rules Rules) (attendance.Issue, bool) {
	if day.IsHoliday {
		return attendance.Issue{}, false
	}
	switch day.Date.Weekday() {
	case time.Saturday, time.Sunday:
		return attendance.Issue{}, false
	case time.Friday:
		minutes := (rules.WorkHours + rules.LunchHours) * 60
		return attendance.Issue{
			Date:        day.Date,
			Kind:        attendance.IssueSuggestWFH,
			Minutes:     minutes,
			Description: "no punches on a Friday: request a full work-from-home day",
			Calculation: fmt.Sprintf("(%dh work + %dh lunch) x 60 = %d min", rules.WorkHours, rules.LunchHours, minutes),
		}, true
	default:
		minutes := rules.WorkHours * 60
		return attendance.Issue{
			Date:        day.Date,
			Kind:        attendance.IssueSuggestLeave,
			Minutes:     minutes,
			Description: "no punches on a weekday: request a full day of leave",
			Calculation: fmt.Sprintf("%dh work x 60 = %d min", rules.WorkHours, minutes),
		}, true
	}
}

// lateIssue checks the check-in against the cutoff. An arrival past the
// lunch break gets the lunch hour deducted, since that hour was never owed.
// When the deducted lateness fits inside the forget-punch window and the
// month still has quota, the lateness is converted into a forget-punch
// request instead of a late finding.
func lateIssue(day attendance.WorkDay, rules Rules, monthUsage int) (attendance.Issue, bool, bool) {
	actual := *day.CheckIn.Actual
	cutoff := clockOn(day.Date, rules.LatestCheckIn)
	if !actual.After(cutoff) {
		return attendance.Issue{}, false, false
	}

	raw := int(actual.Sub(cutoff).Minutes())
	late := raw
	lunchStart := clockOn(day.Date, rules.LunchStart)
	lunchMinutes := rules.LunchHours * 60
	deducted := false
	// Only latenesses long enough to have spanned the whole break (more
	// than two hours past cutoff, arriving after the break begins) never
	// owed the lunch hour.
	if raw > 120 && actual.After(lunchStart) {
		late = raw - lunchMinutes
		deducted = true
	}

	timeRange := fmt.Sprintf("%s~%s", rules.LatestCheckIn, actual.Format(attendance.ClockTime))

	if late <= rules.ForgetPunchMaxMinutes && monthUsage < rules.ForgetPunchAllowancePerMonth {
		return attendance.Issue{
			Date:      day.Date,
			Kind:      attendance.IssueForgetPunch,
			Minutes:   0,
			TimeRange: timeRange,
			Description: fmt.Sprintf("late %d min: cover with forget-punch request (%d of %d used this month)",
				late, monthUsage+1, rules.ForgetPunchAllowancePerMonth),
			Calculation: lateCalculation(raw, late, lunchMinutes, deducted),
		}, true, true
	}

	reason := "monthly forget-punch allowance exhausted"
	if late > rules.ForgetPunchMaxMinutes {
		reason = fmt.Sprintf("exceeds the %d min forget-punch ceiling", rules.ForgetPunchMaxMinutes)
	}
	return attendance.Issue{
		Date:        day.Date,
		Kind:        attendance.IssueLate,
		Minutes:     late,
		TimeRange:   timeRange,
		Description: fmt.Sprintf("late %d min: %s, request %d min of leave", late, reason, late),
		Calculation: lateCalculation(raw, late, lunchMinutes, deducted),
	}, false, true
}

func lateCalculation(raw, late, lunchMinutes int, deducted bool) string {
	if deducted {
		return fmt.Sprintf("%d min past cutoff - %d min lunch = %d min", raw, lunchMinutes, late)
	}
	return fmt.Sprintf("%d min past cutoff", late)
}

// overtimeIssue measures time past the expected end (check-in plus the full
// work day including lunch). Overtime below the minimum is not claimable;
// above it, the claim rounds down to whole increments on top of the minimum.
func overtimeIssue(day attendance.WorkDay, rules Rules) (attendance.Issue, bool) {
	in := *day.CheckIn.Actual
	out := *day.CheckOut.Actual
	expectedEnd := in.Add(time.Duration(rules.WorkHours+rules.LunchHours) * time.Hour)
	if !out.After(expectedEnd) {
		return attendance.Issue{}, false
	}

	raw := int(out.Sub(expectedEnd).Minutes())
	if raw < rules.MinOvertimeMinutes {
		return attendance.Issue{}, false
	}
	eligible := rules.MinOvertimeMinutes +
		(raw-rules.MinOvertimeMinutes)/rules.OvertimeIncrementMinutes*rules.OvertimeIncrementMinutes

	return attendance.Issue{
		Date:    day.Date,
		Kind:    attendance.IssueOvertime,
		Minutes: eligible,
		TimeRange: fmt.Sprintf("%s~%s",
			expectedEnd.Format(attendance.ClockTime), out.Format(attendance.ClockTime)),
		Description: fmt.Sprintf("worked %d min past expected end: claim %d min of overtime", raw, eligible),
		Calculation: fmt.Sprintf("%d min + floor((%d - %d) / %d) x %d = %d min",
			rules.MinOvertimeMinutes, raw, rules.MinOvertimeMinutes,
			rules.OvertimeIncrementMinutes, rules.OvertimeIncrementMinutes, eligible),
	}, true
}
