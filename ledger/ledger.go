package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmployeeNotFound is returned by Reset for an unknown employee.
	ErrEmployeeNotFound = errors.New("employee not found in ledger")

	// ErrEmptySpan is returned by Commit when the span is inverted.
	ErrEmptySpan = errors.New("commit span end precedes start")
)

// =============================================================================
// LEDGER - Load / filter / commit over a Store
// =============================================================================

// Ledger is the single mutation path for processed-range state. Reads may
// use a snapshot; every write re-loads the document so commits for one
// employee never clobber another's state.
type Ledger struct {
	store Store
	clock func() time.Time
	log   zerolog.Logger
}

func New(store Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		clock: time.Now,
		log:   log.With().Str("component", "ledger").Logger(),
	}
}

// Snapshot loads the current document. A missing or empty store yields an
// empty document.
func (l *Ledger) Snapshot(ctx context.Context) (*Document, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if doc == nil {
		doc = NewDocument()
	}
	return doc, nil
}

// CommitRequest records one analysis pass: the span of dates actually
// evaluated, the file they came from, and the forget-punch quota consumed
// per month during the pass.
type CommitRequest struct {
	Employee   string
	Start      time.Time
	End        time.Time
	SourceFile string
	QuotaDelta map[string]int
}

// Commit persists a pass. A range from the same source file is replaced in
// place; otherwise the span is appended. Quota deltas add onto the stored
// monthly counters. The write happens against a fresh load of the document.
func (l *Ledger) Commit(ctx context.Context, req CommitRequest) error {
	if req.End.Before(req.Start) {
		return ErrEmptySpan
	}

	doc, err := l.Snapshot(ctx)
	if err != nil {
		return err
	}
	state := doc.ensureUser(req.Employee)

	entry := ProcessedRange{
		StartDate:        req.Start.Format(attendance.DateOnly),
		EndDate:          req.End.Format(attendance.DateOnly),
		SourceFile:       req.SourceFile,
		LastAnalysisTime: l.clock().UTC().Format(time.RFC3339),
	}

	replaced := false
	for i, r := range state.ProcessedRanges {
		if r.SourceFile == req.SourceFile {
			state.ProcessedRanges[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		state.ProcessedRanges = append(state.ProcessedRanges, entry)
	}

	if state.ForgetPunchUsage == nil {
		state.ForgetPunchUsage = make(map[string]int)
	}
	for month, n := range req.QuotaDelta {
		state.ForgetPunchUsage[month] += n
	}

	if err := l.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	l.log.Info().
		Str("employee", req.Employee).
		Str("start", entry.StartDate).
		Str("end", entry.EndDate).
		Str("source_file", req.SourceFile).
		Bool("replaced", replaced).
		Msg("committed processed range")
	return nil
}

// Reset forgets one employee entirely: ranges and quota counters. A later
// pass for that employee behaves like a first run.
func (l *Ledger) Reset(ctx context.Context, employee string) error {
	doc, err := l.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc.Users[employee]; !ok {
		return fmt.Errorf("%w: %s", ErrEmployeeNotFound, employee)
	}
	delete(doc.Users, employee)
	if err := l.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	l.log.Info().Str("employee", employee).Msg("reset employee state")
	return nil
}

// ResetAll replaces the whole document with an empty one.
func (l *Ledger) ResetAll(ctx context.Context) error {
	if err := l.store.Save(ctx, NewDocument()); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	l.log.Info().Msg("reset all ledger state")
	return nil
}
