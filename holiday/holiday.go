/*
Package holiday resolves Taiwanese public holidays per year.

PURPOSE:
  Absence policy depends on whether a date is a public holiday. Holidays
  come from three sources in priority order: a curated 2025 calendar, the
  government open-data API, and a minimal fixed fallback (New Year's Day
  and National Day) when the API cannot be reached.

KEY CONCEPTS:
  - Set:      holiday dates for any number of years; satisfies the
              attendance.Calendar capability
  - Provider: loads one year from one source
  - Service:  source selection and fallback

SEE ALSO:
  - govapi.go:  the open-data client with retry/backoff
  - attendance: the Calendar consumer
*/
package holiday

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/attendance"
)

// Set is a collection of holiday dates, midnight UTC.
type Set map[time.Time]struct{}

// IsHoliday satisfies attendance.Calendar.
func (s Set) IsHoliday(date time.Time) bool {
	_, ok := s[attendance.Day(date)]
	return ok
}

// Add merges other into s.
func (s Set) Add(other Set) {
	for d := range other {
		s[d] = struct{}{}
	}
}

// Provider loads the holidays of one calendar year from one source.
type Provider interface {
	Load(ctx context.Context, year int) (Set, error)
}

// =============================================================================
// FIXED PROVIDERS
// =============================================================================

// taiwan2025 is the published 2025 holiday calendar: New Year, Lunar New
// Year, Peace Memorial Day, Children's Day / Tomb Sweeping, Dragon Boat
// Festival, Mid-Autumn Festival, National Day, each with its bridge days.
var taiwan2025 = []string{
	"2025/01/01",
	"2025/01/25", "2025/01/26", "2025/01/27", "2025/01/28", "2025/01/29",
	"2025/01/30", "2025/01/31", "2025/02/01", "2025/02/02",
	"2025/02/28", "2025/03/01", "2025/03/02",
	"2025/04/03", "2025/04/04", "2025/04/05", "2025/04/06",
	"2025/05/30", "2025/05/31", "2025/06/01",
	"2025/10/04", "2025/10/05", "2025/10/06",
	"2025/10/10", "2025/10/11", "2025/10/12",
}

// Fixed2025 serves the curated 2025 calendar and nothing else.
type Fixed2025 struct{}

func (Fixed2025) Load(_ context.Context, year int) (Set, error) {
	if year != 2025 {
		return Set{}, nil
	}
	out := make(Set, len(taiwan2025))
	for _, s := range taiwan2025 {
		d, err := time.Parse(attendance.DisplayDate, s)
		if err != nil {
			continue
		}
		out[attendance.Day(d)] = struct{}{}
	}
	return out, nil
}

// Basic serves only the two fixed-date holidays of any year. Last-resort
// fallback when the open-data API is unreachable.
type Basic struct{}

func (Basic) Load(_ context.Context, year int) (Set, error) {
	return Set{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC):  {},
		time.Date(year, time.October, 10, 0, 0, 0, 0, time.UTC): {},
	}, nil
}

// =============================================================================
// SERVICE - Source selection and fallback
// =============================================================================

type Service struct {
	fixed Provider
	gov   Provider
	basic Provider
	log   zerolog.Logger

	mu    sync.Mutex
	cache map[int]Set
}

// NewService wires the three sources. gov may be nil, in which case years
// outside the curated calendar fall straight through to the basic set.
func NewService(gov Provider, log zerolog.Logger) *Service {
	return &Service{
		fixed: Fixed2025{},
		gov:   gov,
		basic: Basic{},
		log:   log.With().Str("component", "holiday").Logger(),
		cache: make(map[int]Set),
	}
}

// LoadYear resolves one year, caching the answer for the process lifetime.
// The curated calendar wins outright for its year; otherwise the open-data
// API is asked, and on failure or an empty answer the basic fixed holidays
// stand in.
func (s *Service) LoadYear(ctx context.Context, year int) Set {
	s.mu.Lock()
	if set, ok := s.cache[year]; ok {
		s.mu.Unlock()
		return set
	}
	s.mu.Unlock()

	set := s.resolveYear(ctx, year)

	s.mu.Lock()
	s.cache[year] = set
	s.mu.Unlock()
	return set
}

func (s *Service) resolveYear(ctx context.Context, year int) Set {
	if set, err := s.fixed.Load(ctx, year); err == nil && len(set) > 0 {
		return set
	}
	if s.gov != nil {
		set, err := s.gov.Load(ctx, year)
		if err == nil && len(set) > 0 {
			return set
		}
		if err != nil {
			s.log.Warn().Err(err).Int("year", year).
				Msg("holiday API unavailable, falling back to fixed holidays")
		}
	}
	set, _ := s.basic.Load(ctx, year)
	return set
}

// Calendar resolves every given year into one merged Set.
func (s *Service) Calendar(ctx context.Context, years []int) Set {
	out := make(Set)
	for _, y := range years {
		out.Add(s.LoadYear(ctx, y))
	}
	return out
}
