/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the analysis pipeline and the processed-state ledger over REST.
  Handles HTTP request/response, JSON serialization, and delegates to the
  analyzer service.

ENDPOINTS:
  Analysis:
    POST   /api/analyze            Upload a punch export and analyze it
    GET    /api/exports/{name}     Download a generated CSV

  State:
    GET    /api/state              List every employee's ledger state
    GET    /api/state/{employee}   One employee's ranges and quota
    DELETE /api/state/{employee}   Forget one employee
    DELETE /api/state              Forget everything

  Health:
    GET    /healthz

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Bad upload, bad file name, bad mode
  - 404: Unknown employee or export
  - 500: Internal errors
  - 502: Analysis succeeded but the ledger write failed

SECURITY NOTE:
  No authentication. The server is meant for a trusted internal network.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/analyzer"
	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/ledger"
	"github.com/fhr/attendance-engine/parser"
)

// maxUploadBytes caps one punch export upload.
const maxUploadBytes = 16 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *analyzer.Service
	Ledger  *ledger.Ledger

	// WorkDir receives uploaded exports and generated CSVs, one
	// subdirectory per analysis run.
	WorkDir string

	log zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *analyzer.Service, l *ledger.Ledger, workDir string, log zerolog.Logger) *Handler {
	return &Handler{
		Service: service,
		Ledger:  l,
		WorkDir: workDir,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// ANALYSIS ENDPOINTS
// =============================================================================

// Analyze accepts a multipart upload ("file") plus optional form fields
// "mode" (incremental|full) and "dry_run" (true|false), runs the pipeline
// and returns the findings.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload", err)
		return
	}

	mode, err := parseMode(r.FormValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mode", err)
		return
	}
	dryRun := r.FormValue("dry_run") == "true"

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field", err)
		return
	}
	defer file.Close()

	// The export name carries the employee and span, so the upload keeps
	// its original base name inside a per-run directory.
	runDir := filepath.Join(h.WorkDir, uuid.NewString())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "create run dir", err)
		return
	}
	inputPath := filepath.Join(runDir, filepath.Base(header.Filename))
	if err := saveUpload(inputPath, file); err != nil {
		writeError(w, http.StatusInternalServerError, "store upload", err)
		return
	}

	csvName := strings.TrimSuffix(filepath.Base(header.Filename), ".txt") + ".csv"
	res, err := h.Service.Run(r.Context(), analyzer.Options{
		InputPath: inputPath,
		CSVPath:   filepath.Join(runDir, csvName),
		Mode:      mode,
		DryRun:    dryRun,
	})
	switch {
	case errors.Is(err, parser.ErrBadFileName):
		writeError(w, http.StatusBadRequest, "file name must follow YYYYMM[-YYYYMM]-name-出勤資料.txt", err)
		return
	case errors.Is(err, analyzer.ErrCancelled):
		writeError(w, http.StatusBadRequest, "analysis cancelled", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "analysis failed", err)
		return
	}

	resp := AnalyzeResponse{
		Employee:      res.Meta.Employee,
		Mode:          string(mode),
		FirstRun:      res.Pass.FirstRun,
		EvaluatedDays: res.Pass.EvaluatedDays,
		SkippedDays:   res.Pass.SkippedDays,
		Committed:     res.Pass.Committed,
		Issues:        toIssueDTOs(res.Pass.Issues),
		Report:        res.Report,
	}
	if res.Pass.EvaluatedDays > 0 {
		resp.SpanStart = res.Pass.SpanStart.Format(attendance.DateOnly)
		resp.SpanEnd = res.Pass.SpanEnd.Format(attendance.DateOnly)
	}
	if res.CSVPath != "" {
		resp.CSVFile = filepath.Base(runDir) + "/" + filepath.Base(res.CSVPath)
	}

	status := http.StatusOK
	if res.Pass.LedgerErr != nil {
		resp.LedgerError = res.Pass.LedgerErr.Error()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// DownloadExport serves a CSV generated by a previous Analyze call. The
// name is "{run}/{file}" as returned in AnalyzeResponse.CSVFile.
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	run := chi.URLParam(r, "run")
	name := chi.URLParam(r, "name")
	if _, err := uuid.Parse(run); err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id", err)
		return
	}
	path := filepath.Join(h.WorkDir, run, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "export not found", nil)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(name)))
	http.ServeFile(w, r, path)
}

// =============================================================================
// STATE ENDPOINTS
// =============================================================================

// ListState returns the ledger state of every known employee.
func (h *Handler) ListState(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load state", err)
		return
	}

	names := make([]string, 0, len(doc.Users))
	for name := range doc.Users {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := StateResponse{Employees: []EmployeeStateDTO{}}
	for _, name := range names {
		resp.Employees = append(resp.Employees, toStateDTO(name, doc.Users[name]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetState returns one employee's ledger state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "employee")
	doc, err := h.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load state", err)
		return
	}
	state := doc.User(name)
	if state == nil {
		writeError(w, http.StatusNotFound, "employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(name, state))
}

// ResetState forgets one employee.
func (h *Handler) ResetState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "employee")
	err := h.Service.Reset(r.Context(), name)
	switch {
	case errors.Is(err, ledger.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "employee not found", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "reset failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "employee": name})
}

// ResetAllState wipes the whole ledger.
func (h *Handler) ResetAllState(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ResetAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "reset failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMode(s string) (analyzer.Mode, error) {
	switch s {
	case "", string(analyzer.ModeIncremental):
		return analyzer.ModeIncremental, nil
	case string(analyzer.ModeFull):
		return analyzer.ModeFull, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
