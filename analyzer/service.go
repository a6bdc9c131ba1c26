package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/holiday"
	"github.com/fhr/attendance-engine/ledger"
	"github.com/fhr/attendance-engine/parser"
	"github.com/fhr/attendance-engine/report"
)

// =============================================================================
// SERVICE - File in, report and CSV out
// =============================================================================

// Stage names one pipeline step, surfaced through the progress callback.
type Stage string

const (
	StageParse    Stage = "parse"
	StageHolidays Stage = "holidays"
	StageGroup    Stage = "group"
	StageAnalyze  Stage = "analyze"
	StageExport   Stage = "export"
)

// Options configures one service run over a single export file.
type Options struct {
	// InputPath is the punch export; its name declares the employee.
	InputPath string

	// CSVPath, when set, receives the spreadsheet export. Any previous
	// file there is backed up first.
	CSVPath string

	Mode   Mode
	DryRun bool

	// Progress, when set, is called as each stage starts.
	Progress func(stage Stage)

	// OnDay, when set, is called after each evaluated day.
	OnDay func(date time.Time, index, total int)
}

// Result is the outcome of one service run.
type Result struct {
	Meta parser.FileMeta
	Pass *PassResult

	// Report is the rendered human-readable summary.
	Report string

	// CSVPath echoes where the export landed, empty when skipped.
	CSVPath string

	ParsedRecords     int
	SkippedLines      int
	TotalCompleteDays int
}

type Service struct {
	engine   *Engine
	ledger   *ledger.Ledger
	holidays *holiday.Service
	log      zerolog.Logger
}

// NewService wires the pipeline. holidays may be nil; days are then
// evaluated without holiday awareness.
func NewService(engine *Engine, l *ledger.Ledger, holidays *holiday.Service, log zerolog.Logger) *Service {
	return &Service{
		engine:   engine,
		ledger:   l,
		holidays: holidays,
		log:      log.With().Str("component", "analyzer").Logger(),
	}
}

// Run executes the whole pipeline for one export file: parse, resolve
// holidays, group into days, evaluate against the ledger, render and
// export. Cancellation is honored between stages and between days.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(Stage) {}
	}
	step := func(stage Stage) error {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		progress(stage)
		return nil
	}

	if err := step(StageParse); err != nil {
		return nil, err
	}
	meta, err := parser.ParseFileName(opts.InputPath)
	if err != nil {
		return nil, err
	}
	parsed, err := parser.ParseFile(opts.InputPath)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("employee", meta.Employee).Str("file", meta.BaseName).
		Int("records", len(parsed.Records)).Int("skipped", parsed.Skipped).
		Msg("parsed punch export")

	if err := step(StageHolidays); err != nil {
		return nil, err
	}
	var cal attendance.Calendar = attendance.NoHolidays{}
	if s.holidays != nil {
		cal = s.holidays.Calendar(ctx, attendance.Years(parsed.Records))
	}

	if err := step(StageGroup); err != nil {
		return nil, err
	}
	days := attendance.GroupByDay(parsed.Records, cal)
	totalComplete := len(attendance.CompleteDates(days))

	if err := step(StageAnalyze); err != nil {
		return nil, err
	}
	var evaluated []time.Time
	pass, err := s.engine.Run(ctx, PassOptions{
		Employee: meta.Employee,
		SourceID: meta.BaseName,
		Mode:     opts.Mode,
		DryRun:   opts.DryRun,
		OnDay: func(date time.Time, index, total int) {
			evaluated = append(evaluated, date)
			if opts.OnDay != nil {
				opts.OnDay(date, index, total)
			}
		},
	}, days)
	if err != nil {
		return nil, err
	}

	// Any commit is already durable at this point, so a late cancellation
	// only skips the export; the evaluated issues still come back.
	if ctx.Err() == nil {
		progress(StageExport)
	}
	res := &Result{
		Meta:              meta,
		Pass:              pass,
		ParsedRecords:     len(parsed.Records),
		SkippedLines:      parsed.Skipped,
		TotalCompleteDays: totalComplete,
	}

	var sb strings.Builder
	if err := report.Render(&sb, report.Data{
		Employee:          meta.Employee,
		TotalCompleteDays: totalComplete,
		EvaluatedDays:     pass.EvaluatedDays,
		SkippedDays:       pass.SkippedDays,
		EvaluatedDates:    evaluated,
		Issues:            pass.Issues,
		Persisted:         pass.Committed || opts.DryRun,
	}); err != nil {
		return nil, err
	}
	res.Report = sb.String()

	if opts.CSVPath != "" && ctx.Err() == nil {
		incremental := opts.Mode != ModeFull
		status := s.emptyPassStatus(ctx, meta.Employee, totalComplete)
		if err := report.SaveCSV(opts.CSVPath, pass.Issues, incremental, status); err != nil {
			return nil, err
		}
		res.CSVPath = opts.CSVPath
	}
	return res, nil
}

// emptyPassStatus builds the status row data for an export with no new
// issues. Best effort: a ledger read failure just omits the row.
func (s *Service) emptyPassStatus(ctx context.Context, employee string, completeDays int) *report.Status {
	doc, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil
	}
	state := doc.User(employee)
	if state == nil {
		return nil
	}
	lastDate := ""
	for _, r := range state.ProcessedRanges {
		if r.EndDate > lastDate {
			lastDate = r.EndDate
		}
	}
	if lastDate == "" {
		return nil
	}
	return &report.Status{
		LastDate:         lastDate,
		CompleteDays:     completeDays,
		LastAnalysisTime: state.LastAnalysisTime(),
	}
}

// Reset forgets one employee's processed history.
func (s *Service) Reset(ctx context.Context, employee string) error {
	return s.ledger.Reset(ctx, employee)
}

// ResetAll wipes the whole ledger.
func (s *Service) ResetAll(ctx context.Context) error {
	return s.ledger.ResetAll(ctx)
}
