package ledger

import (
	"sort"
	"time"
)

// =============================================================================
// INTERVAL ALGEBRA - Pure, no persistence
// =============================================================================

// span is a merged inclusive date interval, midnight-UTC bounds.
type span struct {
	start time.Time
	end   time.Time
}

// mergedSpans normalizes an employee's ranges: malformed entries are
// skipped, the rest are sorted by start and coalesced. Overlapping and
// adjacent (gap of exactly one day) spans merge into one.
func mergedSpans(ranges []ProcessedRange) []span {
	spans := make([]span, 0, len(ranges))
	for _, r := range ranges {
		start, end, ok := r.Span()
		if !ok {
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		// Adjacent means s starts no later than the day after last ends.
		if !s.start.After(last.end.AddDate(0, 0, 1)) {
			if s.end.After(last.end) {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// containsDate reports whether date falls inside any merged span, by binary
// search over the sorted spans.
func containsDate(spans []span, date time.Time) bool {
	i := sort.Search(len(spans), func(i int) bool {
		return !spans[i].end.Before(date)
	})
	return i < len(spans) && !spans[i].start.After(date)
}

// Unprocessed returns, in order, the dates not covered by the employee's
// committed ranges. A nil state passes every date through.
func (s *EmployeeState) Unprocessed(dates []time.Time) []time.Time {
	if s == nil || len(s.ProcessedRanges) == 0 {
		return dates
	}
	spans := mergedSpans(s.ProcessedRanges)
	if len(spans) == 0 {
		return dates
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if !containsDate(spans, d) {
			out = append(out, d)
		}
	}
	return out
}

// Overlaps returns the committed ranges that intersect [start, end]. Used to
// warn before a pass re-covers already analyzed dates.
func (s *EmployeeState) Overlaps(start, end time.Time) []ProcessedRange {
	if s == nil {
		return nil
	}
	var out []ProcessedRange
	for _, r := range s.ProcessedRanges {
		rs, re, ok := r.Span()
		if !ok {
			continue
		}
		if !rs.After(end) && !re.Before(start) {
			out = append(out, r)
		}
	}
	return out
}

// LastAnalysisTime returns the most recent commit timestamp across the
// employee's ranges, or the empty string when none parse.
func (s *EmployeeState) LastAnalysisTime() string {
	if s == nil {
		return ""
	}
	latest := ""
	for _, r := range s.ProcessedRanges {
		if r.LastAnalysisTime > latest {
			latest = r.LastAnalysisTime
		}
	}
	return latest
}
