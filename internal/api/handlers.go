package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/enrich"
	"github.com/equitle/enrichment-cli/internal/model"
	"github.com/equitle/enrichment-cli/internal/provider"
	"github.com/equitle/enrichment-cli/internal/sheet"
	"github.com/equitle/enrichment-cli/internal/store"
)

const runIDHeader = "X-Enrichment-Run-ID"

// Client-facing error messages.
const (
	MsgMissingCredentials = "Enrichment provider API key is not configured"
	MsgNoFile             = "No file uploaded"
	MsgInvalidFileType    = "Invalid file type. Only Excel (.xlsx, .xls) and CSV files are allowed."
	MsgFileTooLarge       = "File exceeds the upload size limit"
	MsgEnrichFailed       = "Failed to enrich file"
	MsgRunLogDisabled     = "Run log is disabled"
	MsgValidationFailed   = "Internal server error during validation"
	MsgSampleDescription  = "Upload an .xlsx, .xls or .csv file with a header row. Columns are matched to record fields by name, so headers do not need to be exact."
)

var allowedMIMETypes = map[string]bool{
	sheet.ContentType:          true,
	"application/vnd.ms-excel": true,
	"text/csv":                 true,
	"text/plain":               true,
	"application/csv":          true,
}

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnrichFile(w http.ResponseWriter, r *http.Request) {
	if s.enricher == nil {
		writeError(w, http.StatusInternalServerError, MsgMissingCredentials)
		return
	}

	// Leave headroom for the multipart envelope; the file itself is checked below.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, MsgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgNoFile)
		return
	}
	defer file.Close() //nolint:errcheck

	if header.Size > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
		return
	}
	if !allowedUpload(header.Filename, header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, MsgInvalidFileType)
		return
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgNoFile)
		return
	}

	log := zap.L().With(zap.String("file", header.Filename), zap.Int("bytes", len(buf)))
	log.Info("api: enrich file")

	res, err := s.enricher.Run(r.Context(), header.Filename, buf)
	switch {
	case err == nil:
	case errors.Is(err, sheet.ErrMalformedInput), errors.Is(err, enrich.ErrNoValidData):
		log.Warn("api: rejected upload", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, unprocessableMessage(err))
		return
	case r.Context().Err() != nil:
		log.Warn("api: client went away", zap.Error(err))
		return
	default:
		log.Error("api: enrich file failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, MsgEnrichFailed)
		return
	}

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": sheet.OutputFileName(header.Filename),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Output)))
	if res.RunID != "" {
		w.Header().Set(runIDHeader, res.RunID)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Output); err != nil {
		log.Warn("api: write response", zap.Error(err))
	}
}

type enrichSingleRequest struct {
	Company string `json:"company"`
	Domain  string `json:"domain"`
	Website string `json:"website"`
}

func (s *Server) handleEnrichSingle(w http.ResponseWriter, r *http.Request) {
	if s.enricher == nil {
		writeError(w, http.StatusInternalServerError, MsgMissingCredentials)
		return
	}

	var req enrichSingleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec := model.InputRecord{
		Row:     1,
		Company: strings.TrimSpace(req.Company),
		Domain:  strings.TrimSpace(req.Domain),
		Website: strings.TrimSpace(req.Website),
	}
	if !rec.HasIdentity() {
		writeError(w, http.StatusBadRequest, "company, domain or website is required")
		return
	}

	writeJSON(w, http.StatusOK, s.enricher.EnrichRecord(r.Context(), rec))
}

func (s *Server) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	if s.enricher == nil {
		writeError(w, http.StatusInternalServerError, MsgMissingCredentials)
		return
	}

	p := s.enricher.Provider()
	validator, ok := p.(provider.KeyValidator)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  false,
			"valid":    false,
			"provider": p.Name(),
			"message":  "Validation not implemented for provider: " + p.Name(),
		})
		return
	}

	check, err := validator.ValidateKey(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		zap.L().Error("api: validate key", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"valid":   false,
			"message": MsgValidationFailed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"valid":    check.Valid,
		"provider": check.Provider,
		"message":  check.Message,
	})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "xlsx" {
		buf, err := sheet.Sample()
		if err != nil {
			zap.L().Error("api: build sample", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to build sample workbook")
			return
		}
		w.Header().Set("Content-Type", sheet.ContentType)
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": sheet.SampleFileName}))
		w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
		_, _ = w.Write(buf)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"headers":    sheet.SampleHeaders,
		"sampleData": sheet.SampleRecords(),
		"instructions": map[string]any{
			"flexibleColumns": sheet.HeaderGuide,
			"description":     MsgSampleDescription,
		},
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, MsgRunLogDisabled)
		return
	}

	filter, err := parseRunFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, MsgRunLogDisabled)
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	rows, err := s.runs.ListRows(r.Context(), id)
	if err != nil {
		zap.L().Error("api: list run rows", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "rows": rows})
}

func parseRunFilter(r *http.Request) (store.RunFilter, error) {
	q := r.URL.Query()
	var f store.RunFilter

	switch status := model.RunStatus(q.Get("status")); status {
	case "", model.RunStatusRunning, model.RunStatusComplete, model.RunStatusFailed:
		f.Status = status
	default:
		return f, errors.New("status must be running, complete or failed")
	}

	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, errors.New(name + " must be a non-negative integer")
		}
		*dst = n
	}
	return f, nil
}

// allowedUpload accepts a known spreadsheet MIME type or, for generic
// types such as application/octet-stream, a known extension.
func allowedUpload(filename, contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && allowedMIMETypes[mediaType] {
		return true
	}
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

func unprocessableMessage(err error) string {
	if errors.Is(err, enrich.ErrNoValidData) {
		return "No valid data found in file"
	}
	return "File must be a readable spreadsheet with a header row and at least one data row"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
