package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/policy"
)

// =============================================================================
// HELPERS
// =============================================================================

var (
	monday = time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	friday = time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
)

func at(date time.Time, clock string) *time.Time {
	t, err := time.Parse(attendance.ClockTime, clock)
	if err != nil {
		panic(err)
	}
	v := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	return &v
}

func day(date time.Time, inClock, outClock string) attendance.WorkDay {
	var in, out *time.Time
	if inClock != "" {
		in = at(date, inClock)
	}
	if outClock != "" {
		out = at(date, outClock)
	}
	return attendance.WorkDay{
		Date: date,
		CheckIn: &attendance.Record{
			Date: date, Kind: attendance.KindCheckIn,
			Scheduled: at(date, "09:00"), Actual: in,
		},
		CheckOut: &attendance.Record{
			Date: date, Kind: attendance.KindCheckOut,
			Scheduled: at(date, "18:00"), Actual: out,
		},
		IsFriday: date.Weekday() == time.Friday,
	}
}

// =============================================================================
// LATENESS
// =============================================================================

func TestEvaluateDay_OnTime(t *testing.T) {
	// GIVEN a punctual day within working hours
	d := day(monday, "09:00", "18:00")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN no issues are raised
	assert.Empty(t, out.Issues)
	assert.False(t, out.ForgetPunchUsed)
}

func TestEvaluateDay_SmallLatenessWithQuota(t *testing.T) {
	// GIVEN a 5-minute late arrival and unused monthly quota
	d := day(monday, "10:35", "18:00")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN the lateness converts to a zero-minute forget-punch request
	require.Len(t, out.Issues, 1)
	issue := out.Issues[0]
	assert.Equal(t, attendance.IssueForgetPunch, issue.Kind)
	assert.Equal(t, 0, issue.Minutes)
	assert.Equal(t, "10:30~10:35", issue.TimeRange)
	assert.True(t, out.ForgetPunchUsed)
}

func TestEvaluateDay_SmallLatenessQuotaExhausted(t *testing.T) {
	// GIVEN a 5-minute late arrival with both monthly uses spent
	d := day(monday, "10:35", "18:00")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 2)

	// THEN a late finding is raised instead of a conversion
	require.Len(t, out.Issues, 1)
	issue := out.Issues[0]
	assert.Equal(t, attendance.IssueLate, issue.Kind)
	assert.Equal(t, 5, issue.Minutes)
	assert.Contains(t, issue.Description, "allowance exhausted")
	assert.False(t, out.ForgetPunchUsed)
}

func TestEvaluateDay_AfternoonArrivalDeductsLunch(t *testing.T) {
	// GIVEN an arrival at 13:35, well past the lunch break
	d := day(monday, "13:35", "23:00")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN 185 raw minutes shrink to 125 after the lunch deduction
	require.NotEmpty(t, out.Issues)
	issue := out.Issues[0]
	assert.Equal(t, attendance.IssueLate, issue.Kind)
	assert.Equal(t, 125, issue.Minutes)
	assert.Contains(t, issue.Description, "ceiling")
}

func TestEvaluateDay_LunchBoundary(t *testing.T) {
	rules := policy.Default()

	// GIVEN an arrival exactly at lunch start
	out := policy.EvaluateDay(day(monday, "12:30", "22:00"), rules, 0)

	// THEN the full 120 minutes stand, no deduction
	require.Len(t, out.Issues, 1)
	assert.Equal(t, 120, out.Issues[0].Minutes)

	// GIVEN an arrival one minute into lunch
	out = policy.EvaluateDay(day(monday, "12:31", "22:00"), rules, 0)

	// THEN the lunch hour is deducted: 121 - 60 = 61
	require.Len(t, out.Issues, 1)
	assert.Equal(t, 61, out.Issues[0].Minutes)
}

func TestEvaluateDay_EarlyCutoffKeepsLunchHour(t *testing.T) {
	// GIVEN a cutoff moved to 11:30 and a 12:45 arrival: 75 raw minutes,
	// after lunch start but nowhere near spanning the whole break
	cutoff := "11:30"
	rules, err := policy.Default().Apply(policy.Overrides{LatestCheckIn: &cutoff})
	require.NoError(t, err)
	d := day(monday, "12:45", "22:00")

	// WHEN evaluated with full quota available
	out := policy.EvaluateDay(d, rules, 0)

	// THEN the lunch hour is not deducted and the lateness stands as-is
	require.Len(t, out.Issues, 1)
	issue := out.Issues[0]
	assert.Equal(t, attendance.IssueLate, issue.Kind)
	assert.Equal(t, 75, issue.Minutes)
	assert.Contains(t, issue.Description, "ceiling")
	assert.False(t, out.ForgetPunchUsed)
}

// =============================================================================
// OVERTIME
// =============================================================================

func TestEvaluateDay_OvertimeRounding(t *testing.T) {
	rules := policy.Default()

	cases := []struct {
		name     string
		checkout string
		eligible int
	}{
		{"below minimum yields nothing", "18:59", 0},
		{"89 raw rounds to 60", "19:29", 60},
		{"119 raw rounds to 60", "19:59", 60},
		{"121 raw rounds to 120", "20:01", 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a 09:00 check-in with expected end 18:00
			d := day(monday, "09:00", tc.checkout)

			// WHEN evaluated
			out := policy.EvaluateDay(d, rules, 0)

			// THEN the claim rounds down to whole increments above the minimum
			if tc.eligible == 0 {
				assert.Empty(t, out.Issues)
				return
			}
			require.Len(t, out.Issues, 1)
			assert.Equal(t, attendance.IssueOvertime, out.Issues[0].Kind)
			assert.Equal(t, tc.eligible, out.Issues[0].Minutes)
		})
	}
}

func TestEvaluateDay_LateAndOvertimeSameDay(t *testing.T) {
	// GIVEN a day that is both late and long
	d := day(monday, "10:35", "20:40") // expected end 19:35, 65 raw overtime

	// WHEN evaluated with exhausted quota
	out := policy.EvaluateDay(d, policy.Default(), 2)

	// THEN both findings appear
	require.Len(t, out.Issues, 2)
	assert.Equal(t, attendance.IssueLate, out.Issues[0].Kind)
	assert.Equal(t, attendance.IssueOvertime, out.Issues[1].Kind)
	assert.Equal(t, 60, out.Issues[1].Minutes)
}

// =============================================================================
// FRIDAYS, ABSENCES, HOLIDAYS
// =============================================================================

func TestEvaluateDay_FridayExemptFromChecks(t *testing.T) {
	// GIVEN a Friday with a very late arrival and a long evening
	d := day(friday, "13:35", "23:30")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN no late or overtime findings are raised
	assert.Empty(t, out.Issues)
}

func TestEvaluateDay_AbsentFridaySuggestsWFH(t *testing.T) {
	// GIVEN a Friday with no punches at all
	d := day(friday, "", "")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN a full-day WFH entry covering work plus lunch is suggested
	require.Len(t, out.Issues, 1)
	assert.Equal(t, attendance.IssueSuggestWFH, out.Issues[0].Kind)
	assert.Equal(t, 540, out.Issues[0].Minutes)
}

func TestEvaluateDay_AbsentWeekdaySuggestsLeave(t *testing.T) {
	// GIVEN a Monday with scheduled slots but no actual punches
	d := day(monday, "", "")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN a full work-day leave entry is suggested
	require.Len(t, out.Issues, 1)
	assert.Equal(t, attendance.IssueSuggestLeave, out.Issues[0].Kind)
	assert.Equal(t, 480, out.Issues[0].Minutes)
}

func TestEvaluateDay_AbsentHolidayIsSilent(t *testing.T) {
	// GIVEN an absent day flagged as a public holiday
	d := day(monday, "", "")
	d.IsHoliday = true

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN nothing is raised
	assert.Empty(t, out.Issues)
}

func TestEvaluateDay_AbsentWeekendIsSilent(t *testing.T) {
	// GIVEN an absent Saturday
	saturday := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	d := day(saturday, "", "")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN nothing is raised
	assert.Empty(t, out.Issues)
}

func TestEvaluateDay_MissingCheckoutIsAbsence(t *testing.T) {
	// GIVEN a day where only the check-in was punched
	d := day(monday, "09:00", "")

	// WHEN evaluated
	out := policy.EvaluateDay(d, policy.Default(), 0)

	// THEN the day counts as fully absent
	require.Len(t, out.Issues, 1)
	assert.Equal(t, attendance.IssueSuggestLeave, out.Issues[0].Kind)
}

// =============================================================================
// RULES
// =============================================================================

func TestRules_ApplyOverrides(t *testing.T) {
	// GIVEN an override of the cutoff and the monthly allowance
	cutoff := "09:30"
	allowance := 3

	// WHEN merged onto the defaults
	merged, err := policy.Default().Apply(policy.Overrides{
		LatestCheckIn:                &cutoff,
		ForgetPunchAllowancePerMonth: &allowance,
	})

	// THEN only those fields change
	require.NoError(t, err)
	assert.Equal(t, "09:30", merged.LatestCheckIn)
	assert.Equal(t, 3, merged.ForgetPunchAllowancePerMonth)
	assert.Equal(t, "12:30", merged.LunchStart)
}

func TestRules_ApplyRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		o    policy.Overrides
	}{
		{"malformed clock", policy.Overrides{LatestCheckIn: ptr("25:99")}},
		{"zero work hours", policy.Overrides{WorkHours: ptrInt(0)}},
		{"zero increment", policy.Overrides{OvertimeIncrementMinutes: ptrInt(0)}},
		{"negative allowance", policy.Overrides{ForgetPunchAllowancePerMonth: ptrInt(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// WHEN the override is merged
			_, err := policy.Default().Apply(tc.o)

			// THEN the whole merge is rejected
			require.Error(t, err)
		})
	}
}

func ptr(s string) *string { return &s }
func ptrInt(i int) *int    { return &i }
