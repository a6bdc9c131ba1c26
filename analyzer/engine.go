/*
Package analyzer orchestrates analysis passes over punch-clock data.

PURPOSE:
  One pass takes an employee's grouped work days, drops the dates the
  ledger already covers, evaluates the rest in date order while carrying
  the monthly forget-punch quota forward, and commits the evaluated span
  back to the ledger in a single write.

KEY CONCEPTS:
  - Engine:  the date-ordered evaluation fold plus the commit
  - Service: the full file pipeline (parse, holidays, group, run, export)
  - Mode:    incremental skips covered dates; full re-evaluates everything.
             A first-time employee always runs full.

INVARIANTS:
  1. Days are evaluated oldest first; a day's quota view includes the
     conversions of earlier days in the same pass.
  2. Only complete days (both punch slots present) are evaluated or
     committed.
  3. Cancellation is honored between days and always before the commit;
     a cancelled pass writes nothing.
  4. A failed commit degrades the pass instead of discarding it: the
     issues are still returned, flagged as not persisted.

SEE ALSO:
  - policy: the per-day rule evaluation
  - ledger: processed ranges and quota counters
*/
package analyzer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/ledger"
	"github.com/fhr/attendance-engine/policy"
)

// ErrCancelled is returned when the context ends mid-pass. Nothing has
// been committed when this comes back.
var ErrCancelled = errors.New("analysis cancelled")

// ErrNoEmployee is returned when a pass has no employee name.
var ErrNoEmployee = errors.New("employee name is required")

type Mode string

const (
	// ModeIncremental evaluates only dates the ledger does not cover yet.
	ModeIncremental Mode = "incremental"

	// ModeFull re-evaluates every complete day regardless of the ledger.
	ModeFull Mode = "full"
)

// =============================================================================
// PASS OPTIONS / RESULT
// =============================================================================

// PassOptions configures one engine run.
type PassOptions struct {
	Employee string

	// SourceID identifies the upload in the ledger, normally the export
	// file's base name. Re-commits from the same SourceID replace the
	// previous range.
	SourceID string

	Mode Mode

	// DryRun evaluates without committing. Used by read-only debug runs.
	DryRun bool

	// OnDay, when set, is called after each evaluated day.
	OnDay func(date time.Time, index, total int)
}

// PassResult is the outcome of one engine run.
type PassResult struct {
	Employee string
	Issues   []attendance.Issue

	// EvaluatedDays and SkippedDays partition the complete days of the
	// input: evaluated now vs. already covered by the ledger.
	EvaluatedDays int
	SkippedDays   int

	// Span is the inclusive date range actually evaluated; zero when
	// nothing was.
	SpanStart time.Time
	SpanEnd   time.Time

	// FirstRun reports that the employee had no ledger state, which
	// forces a full evaluation.
	FirstRun bool

	// Overlaps lists previously committed ranges intersecting the span,
	// surfaced so a full-mode caller knows it re-covered dates.
	Overlaps []ledger.ProcessedRange

	// Committed is true when the ledger write succeeded. When false and
	// LedgerErr is set, the issues were produced but not persisted.
	Committed bool
	LedgerErr error
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	ledger *ledger.Ledger
	rules  policy.Rules
	log    zerolog.Logger
}

func NewEngine(l *ledger.Ledger, rules policy.Rules, log zerolog.Logger) *Engine {
	return &Engine{
		ledger: l,
		rules:  rules,
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// Run executes one pass over grouped days. days may arrive unsorted; the
// fold proceeds oldest first. The returned error is non-nil only for
// failures that aborted the pass; a commit failure instead degrades the
// result (Committed false, LedgerErr set).
func (e *Engine) Run(ctx context.Context, opts PassOptions, days []attendance.WorkDay) (*PassResult, error) {
	if opts.Employee == "" {
		return nil, ErrNoEmployee
	}
	if opts.Mode == "" {
		opts.Mode = ModeIncremental
	}

	doc, err := e.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	state := doc.User(opts.Employee)

	res := &PassResult{
		Employee: opts.Employee,
		FirstRun: state == nil,
	}

	complete := make([]attendance.WorkDay, 0, len(days))
	for _, d := range days {
		if d.Complete() {
			complete = append(complete, d)
		}
	}
	sortDays(complete)

	toEvaluate := e.selectDays(opts, state, complete, res)
	if len(toEvaluate) == 0 {
		e.log.Info().Str("employee", opts.Employee).Int("skipped", res.SkippedDays).
			Msg("no unprocessed days, nothing to evaluate")
		return res, nil
	}

	res.SpanStart = toEvaluate[0].Date
	res.SpanEnd = toEvaluate[len(toEvaluate)-1].Date
	res.Overlaps = state.Overlaps(res.SpanStart, res.SpanEnd)

	quotaDelta := make(map[string]int)
	for i, day := range toEvaluate {
		if ctx.Err() != nil {
			e.log.Warn().Str("employee", opts.Employee).Int("evaluated", i).
				Msg("pass cancelled, nothing committed")
			return nil, ErrCancelled
		}

		month := attendance.MonthKey(day.Date)
		usage := state.Usage(month) + quotaDelta[month]

		outcome := policy.EvaluateDay(day, e.rules, usage)
		if outcome.ForgetPunchUsed {
			quotaDelta[month]++
		}
		for _, issue := range outcome.Issues {
			issue.New = true
			res.Issues = append(res.Issues, issue)
		}
		res.EvaluatedDays++

		if opts.OnDay != nil {
			opts.OnDay(day.Date, i+1, len(toEvaluate))
		}
	}

	if opts.DryRun {
		e.log.Info().Str("employee", opts.Employee).Int("evaluated", res.EvaluatedDays).
			Msg("dry run, skipping commit")
		return res, nil
	}

	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	err = e.ledger.Commit(ctx, ledger.CommitRequest{
		Employee:   opts.Employee,
		Start:      res.SpanStart,
		End:        res.SpanEnd,
		SourceFile: opts.SourceID,
		QuotaDelta: quotaDelta,
	})
	if err != nil {
		// The findings are still worth showing; the same dates will
		// simply re-evaluate next pass.
		e.log.Error().Err(err).Str("employee", opts.Employee).
			Msg("ledger commit failed, results not persisted")
		res.LedgerErr = err
		return res, nil
	}
	res.Committed = true
	return res, nil
}

// selectDays applies the mode: full (or a first run) takes every complete
// day, incremental drops the ledger-covered ones.
func (e *Engine) selectDays(opts PassOptions, state *ledger.EmployeeState, complete []attendance.WorkDay, res *PassResult) []attendance.WorkDay {
	if opts.Mode == ModeFull || res.FirstRun {
		return complete
	}

	dates := make([]time.Time, len(complete))
	for i, d := range complete {
		dates[i] = d.Date
	}
	fresh := state.Unprocessed(dates)

	keep := make(map[time.Time]struct{}, len(fresh))
	for _, d := range fresh {
		keep[d] = struct{}{}
	}
	out := make([]attendance.WorkDay, 0, len(fresh))
	for _, d := range complete {
		if _, ok := keep[d.Date]; ok {
			out = append(out, d)
		}
	}
	res.SkippedDays = len(complete) - len(out)
	return out
}

func sortDays(days []attendance.WorkDay) {
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
}
