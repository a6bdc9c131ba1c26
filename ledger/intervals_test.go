package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/ledger"
)

func date(s string) time.Time {
	t, err := time.Parse(attendance.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(ss ...string) []time.Time {
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		out = append(out, date(s))
	}
	return out
}

func processed(start, end string) ledger.ProcessedRange {
	return ledger.ProcessedRange{StartDate: start, EndDate: end, SourceFile: "x.txt"}
}

// =============================================================================
// UNPROCESSED - Filtering candidate dates against committed ranges
// =============================================================================

func TestUnprocessed_NilStatePassesEverything(t *testing.T) {
	// GIVEN an employee never seen before
	var state *ledger.EmployeeState

	// WHEN candidate dates are filtered
	out := state.Unprocessed(dates("2025-07-01", "2025-07-02"))

	// THEN every date passes through
	assert.Len(t, out, 2)
}

func TestUnprocessed_FiltersCoveredDates(t *testing.T) {
	// GIVEN one committed range
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{processed("2025-07-01", "2025-07-10")},
	}

	// WHEN dates inside, at the bounds, and outside are filtered
	out := state.Unprocessed(dates("2025-06-30", "2025-07-01", "2025-07-05", "2025-07-10", "2025-07-11"))

	// THEN only the dates outside the inclusive range remain
	require.Len(t, out, 2)
	assert.Equal(t, date("2025-06-30"), out[0])
	assert.Equal(t, date("2025-07-11"), out[1])
}

func TestUnprocessed_MergesOverlappingRanges(t *testing.T) {
	// GIVEN two overlapping committed ranges
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{
			processed("2025-07-01", "2025-07-10"),
			processed("2025-07-08", "2025-07-20"),
		},
	}

	// WHEN a date in the overlap seam is filtered
	out := state.Unprocessed(dates("2025-07-09", "2025-07-15", "2025-07-21"))

	// THEN the seam is covered and only the trailing date survives
	require.Len(t, out, 1)
	assert.Equal(t, date("2025-07-21"), out[0])
}

func TestUnprocessed_MergesAdjacentRanges(t *testing.T) {
	// GIVEN two ranges that touch end-to-start with no gap day
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{
			processed("2025-07-01", "2025-07-07"),
			processed("2025-07-08", "2025-07-14"),
		},
	}

	// WHEN the boundary dates are filtered
	out := state.Unprocessed(dates("2025-07-07", "2025-07-08", "2025-07-15"))

	// THEN the merged span covers both sides of the seam
	require.Len(t, out, 1)
	assert.Equal(t, date("2025-07-15"), out[0])
}

func TestUnprocessed_RangesOutOfOrder(t *testing.T) {
	// GIVEN ranges committed in no particular order
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{
			processed("2025-08-01", "2025-08-05"),
			processed("2025-07-01", "2025-07-05"),
		},
	}

	// WHEN dates across both ranges are filtered
	out := state.Unprocessed(dates("2025-07-03", "2025-07-10", "2025-08-03"))

	// THEN membership works regardless of stored order
	require.Len(t, out, 1)
	assert.Equal(t, date("2025-07-10"), out[0])
}

func TestUnprocessed_SkipsMalformedRanges(t *testing.T) {
	// GIVEN a malformed range alongside a valid one
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{
			{StartDate: "not-a-date", EndDate: "2025-07-10"},
			{StartDate: "2025-07-10", EndDate: "2025-07-01"}, // inverted
			processed("2025-07-01", "2025-07-05"),
		},
	}

	// WHEN dates are filtered
	out := state.Unprocessed(dates("2025-07-03", "2025-07-08"))

	// THEN only the valid range filters anything
	require.Len(t, out, 1)
	assert.Equal(t, date("2025-07-08"), out[0])
}

func TestUnprocessed_SingleDayRange(t *testing.T) {
	// GIVEN a committed range covering exactly one day
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{processed("2025-07-04", "2025-07-04")},
	}

	// WHEN the day and its neighbors are filtered
	out := state.Unprocessed(dates("2025-07-03", "2025-07-04", "2025-07-05"))

	// THEN only that single day is covered
	require.Len(t, out, 2)
	assert.Equal(t, date("2025-07-03"), out[0])
	assert.Equal(t, date("2025-07-05"), out[1])
}

// =============================================================================
// OVERLAPS / METADATA
// =============================================================================

func TestOverlaps(t *testing.T) {
	// GIVEN two disjoint committed ranges
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{
			processed("2025-07-01", "2025-07-10"),
			processed("2025-08-01", "2025-08-10"),
		},
	}

	// WHEN intersecting with a span touching only the first
	hits := state.Overlaps(date("2025-07-10"), date("2025-07-20"))

	// THEN only the first range reports
	require.Len(t, hits, 1)
	assert.Equal(t, "2025-07-01", hits[0].StartDate)

	// WHEN intersecting with a span between them
	assert.Empty(t, state.Overlaps(date("2025-07-15"), date("2025-07-20")))
}

func TestLastAnalysisTime(t *testing.T) {
	// GIVEN ranges with different commit timestamps
	state := &ledger.EmployeeState{
		ProcessedRanges: []ledger.ProcessedRange{
			{StartDate: "2025-07-01", EndDate: "2025-07-05", LastAnalysisTime: "2025-07-06T10:00:00Z"},
			{StartDate: "2025-08-01", EndDate: "2025-08-05", LastAnalysisTime: "2025-08-06T10:00:00Z"},
		},
	}

	// THEN the most recent timestamp wins
	assert.Equal(t, "2025-08-06T10:00:00Z", state.LastAnalysisTime())
	assert.Equal(t, "", (*ledger.EmployeeState)(nil).LastAnalysisTime())
}
