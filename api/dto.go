/*
dto.go - Data transfer objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface, decoupled from the domain types so
  the internal model can move without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// IssueDTO is one finding in an analysis response.
type IssueDTO struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Minutes     int    `json:"minutes"`
	Description string `json:"description"`
	TimeRange   string `json:"time_range,omitempty"`
	Calculation string `json:"calculation,omitempty"`
	New         bool   `json:"new"`
}

// AnalyzeResponse is the outcome of one uploaded export.
type AnalyzeResponse struct {
	Employee      string     `json:"employee"`
	Mode          string     `json:"mode"`
	FirstRun      bool       `json:"first_run"`
	EvaluatedDays int        `json:"evaluated_days"`
	SkippedDays   int        `json:"skipped_days"`
	SpanStart     string     `json:"span_start,omitempty"`
	SpanEnd       string     `json:"span_end,omitempty"`
	Committed     bool       `json:"committed"`
	LedgerError   string     `json:"ledger_error,omitempty"`
	Issues        []IssueDTO `json:"issues"`
	Report        string     `json:"report"`
	CSVFile       string     `json:"csv_file,omitempty"`
}

// ProcessedRangeDTO mirrors one committed ledger range.
type ProcessedRangeDTO struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	SourceFile       string `json:"source_file"`
	LastAnalysisTime string `json:"last_analysis_time"`
}

// EmployeeStateDTO is one employee's ledger view.
type EmployeeStateDTO struct {
	Employee         string              `json:"employee"`
	ProcessedRanges  []ProcessedRangeDTO `json:"processed_date_ranges"`
	ForgetPunchUsage map[string]int      `json:"forget_punch_usage"`
	LastAnalysisTime string              `json:"last_analysis_time,omitempty"`
}

// StateResponse lists every known employee.
type StateResponse struct {
	Employees []EmployeeStateDTO `json:"employees"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toIssueDTOs(issues []attendance.Issue) []IssueDTO {
	out := make([]IssueDTO, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueDTO{
			Date:        issue.Date.Format(attendance.DateOnly),
			Kind:        string(issue.Kind),
			Minutes:     issue.Minutes,
			Description: issue.Description,
			TimeRange:   issue.TimeRange,
			Calculation: issue.Calculation,
			New:         issue.New,
		})
	}
	return out
}

func toStateDTO(name string, state *ledger.EmployeeState) EmployeeStateDTO {
	dto := EmployeeStateDTO{
		Employee:         name,
		ProcessedRanges:  []ProcessedRangeDTO{},
		ForgetPunchUsage: map[string]int{},
		LastAnalysisTime: state.LastAnalysisTime(),
	}
	if state == nil {
		return dto
	}
	for _, r := range state.ProcessedRanges {
		dto.ProcessedRanges = append(dto.ProcessedRanges, ProcessedRangeDTO(r))
	}
	for k, v := range state.ForgetPunchUsage {
		dto.ForgetPunchUsage[k] = v
	}
	return dto
}
