package attendance

import (
	"sort"
	"time"
)

// =============================================================================
// GROUPING - Records to WorkDays
// =============================================================================

// GroupByDay folds records into one WorkDay per calendar date, sorted by
// date. If a record kind repeats for the same date, the last one wins.
// The calendar stamps each day's holiday flag; pass NoHolidays{} to skip.
func GroupByDay(records []Record, cal Calendar) []WorkDay {
	if cal == nil {
		cal = NoHolidays{}
	}

	byDate := make(map[time.Time]*WorkDay)
	for i := range records {
		rec := &records[i]
		if rec.Date.IsZero() {
			continue
		}
		date := Day(rec.Date)
		day, ok := byDate[date]
		if !ok {
			day = &WorkDay{
				Date:      date,
				IsFriday:  date.Weekday() == time.Friday,
				IsHoliday: cal.IsHoliday(date),
			}
			byDate[date] = day
		}
		if rec.Kind == KindCheckIn {
			day.CheckIn = rec
		} else {
			day.CheckOut = rec
		}
	}

	days := make([]WorkDay, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// CompleteDates returns the sorted dates that have both a check-in and a
// check-out record. These are the dates the ledger tracks.
func CompleteDates(days []WorkDay) []time.Time {
	var out []time.Time
	for _, d := range days {
		if d.Complete() {
			out = append(out, d.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Years returns the distinct years covered by the records, ascending.
// Used to know which holiday calendars to load before grouping.
func Years(records []Record) []int {
	seen := make(map[int]struct{})
	for _, rec := range records {
		if !rec.Date.IsZero() {
			seen[rec.Date.Year()] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
