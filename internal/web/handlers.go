package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/history"
	"github.com/JonMunkholm/oesreport/internal/ingest"
	"github.com/JonMunkholm/oesreport/internal/logging"
	"github.com/JonMunkholm/oesreport/internal/render"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

// Response headers set on generated reports.
const (
	HeaderRunID       = "X-Run-ID"
	HeaderDiagnostics = "X-Report-Diagnostics"
)

type healthResponse struct {
	Status  string             `json:"status"`
	Reports core.LimiterStatus `json:"reports"`
}

// handleHealth reports liveness plus run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Reports: s.service.LimiterStatus(),
	})
}

// handleSchema returns the default schema document.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Schema())
}

// handleFormats lists the output formats.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"formats": render.Formats(),
		"default": s.cfg.Report.DefaultFormat,
	})
}

// handleReport generates and renders a report from an uploaded data file.
// Diagnostics do not fail the request; their count is in X-Report-Diagnostics.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.cfg.Report.DefaultFormat
	}
	renderer, err := render.Lookup(format)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Run(WithRequestMetadata(r.Context(), r), core.RunRequest{
		FileName: up.name,
		Data:     up.data,
		Schema:   up.schema,
		Format:   renderer.Format(),
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	// Rendered to a buffer so a failure can still produce an error response.
	var buf bytes.Buffer
	if err := render.Write(&buf, renderer, res.Report); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	disposition := "attachment"
	if renderer.Format() != "xlsx" {
		disposition = "inline"
	}

	h := w.Header()
	h.Set("Content-Type", renderer.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": outputName(up.name, renderer.Extension()),
	}))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set(HeaderRunID, res.ID)
	h.Set(HeaderDiagnostics, strconv.Itoa(res.Report.DiagnosticCount()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("report write error",
			"run_id", res.ID, "format", renderer.Format(), "error", err)
	}
}

type sectionSummary struct {
	Key         core.PartitionKey `json:"key"`
	Labels      []string          `json:"labels"`
	Rows        int               `json:"rows"`
	Sample      bool              `json:"sample"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
}

type validateResponse struct {
	RunID           string            `json:"run_id"`
	Digest          string            `json:"digest"`
	RowCount        int               `json:"row_count"`
	DiagnosticCount int               `json:"diagnostic_count"`
	Diagnostics     []core.Diagnostic `json:"diagnostics"`
	Unattached      []core.Diagnostic `json:"unattached,omitempty"`
	Sections        []sectionSummary  `json:"sections"`
}

// handleValidate runs the pipeline and returns the diagnostics and section
// outline without table bodies.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Run(WithRequestMetadata(r.Context(), r), core.RunRequest{
		FileName: up.name,
		Data:     up.data,
		Schema:   up.schema,
		Format:   "validate",
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	rep := res.Report
	resp := validateResponse{
		RunID:           res.ID,
		Digest:          res.Digest,
		RowCount:        rep.RowCount,
		DiagnosticCount: rep.DiagnosticCount(),
		Diagnostics:     rep.Diagnostics,
		Unattached:      rep.Unattached,
		Sections:        make([]sectionSummary, 0, len(rep.Sections)),
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []core.Diagnostic{}
	}
	for _, sec := range rep.Sections {
		resp.Sections = append(resp.Sections, sectionSummary{
			Key:         sec.Key,
			Labels:      sec.Labels,
			Rows:        len(sec.Table.Rows),
			Sample:      sec.Disclaimer != "",
			Diagnostics: sec.Diagnostics,
		})
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// handleHistory lists recent runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", history.DefaultLimit)

	runs, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

// upload is the content of a report request form.
type upload struct {
	name   string
	data   []byte
	schema *schema.Document
}

// readUpload reads the multipart "file" field and the optional "schema" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Report.MaxFileSize
	// Allow room for the schema part and multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: %w", ingest.ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ingest.ErrFileTooLarge, header.Size, maxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	up := &upload{name: header.Filename, data: data}

	sf, sh, err := r.FormFile("schema")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return up, nil
	case err != nil:
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defer sf.Close()

	if up.schema, err = schema.Decode(sh.Filename, sf); err != nil {
		return nil, err
	}
	return up, nil
}

// outputName is the data file's base name with ext in place of its extension.
func outputName(name, ext string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "report"
	}
	return base + ext
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
