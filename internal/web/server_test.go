package web

import (
	"bytes"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/oesreport/internal/config"
	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/history"
	"github.com/JonMunkholm/oesreport/internal/ingest"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

var validRow = map[string]string{
	"DsgntParticipant":       "A",
	"RprtEntityCd":           "X",
	"RptDate":                "202501",
	"Sp500":                  "Y",
	"OrderType":              "MXXNN",
	"OrderSize":              "250",
	"AvgOrderQty":            "100.5",
	"AvgOrderSize":           "1234.5",
	"ExctdOrderMidPtAvg":     "12.25",
	"PctExctdAtQuotOrBetter": "0.95",
	"PctExctdPI":             "0.5",
	"WghtdAvgPctPI":          "0.0012",
	"AvgEffctvSprdPct":       "0.001",
	"AvgPctQuotSprd":         "0.002",
	"AvgEFQPct":              "0.75",
	"AvgRealSprdPct15sec":    "0.0005",
	"AvgRealSprdPct1min":     "0.0004",
	"WghtdAvgExctnTime":      "12.5",
}

// oesCSV builds a CSV in schema column order. Each override map yields one
// row on top of validRow.
func oesCSV(t *testing.T, rows ...map[string]string) []byte {
	t.Helper()
	doc, err := schema.Default()
	require.NoError(t, err)
	ts, err := doc.TableSchema()
	require.NoError(t, err)

	names := make([]string, len(ts.Columns))
	for i, c := range ts.Columns {
		names[i] = c.Name
	}

	var b strings.Builder
	b.WriteString(strings.Join(names, ",") + "\n")
	for _, overrides := range rows {
		fields := make([]string, len(names))
		for i, n := range names {
			fields[i] = validRow[n]
			if v, ok := overrides[n]; ok {
				fields[i] = v
			}
		}
		b.WriteString(strings.Join(fields, ",") + "\n")
	}
	return []byte(b.String())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Report: config.ReportConfig{MaxFileSize: 1 << 20, DefaultFormat: "json"},
		Rate:   config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *history.MemoryStore) {
	t.Helper()
	store := history.NewMemoryStore(10)
	svc, err := core.NewService(core.ServiceConfig{
		Parse:   ingest.Parser(ingest.Options{}),
		History: store,
		Clock:   clockwork.NewFakeClock(),
	})
	require.NoError(t, err)
	return NewServer(svc, cfg), store
}

// multipartBody builds a form with the given file parts (field -> name, content).
func multipartBody(t *testing.T, parts map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, p := range parts {
		fw, err := mw.CreateFormFile(field, p[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(p[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, s *Server, target string, parts map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, parts)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("User-Agent", "report-test")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, core.DefaultMaxConcurrentReports, resp.Reports.MaxConcurrent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSchemaAndFormats(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc schema.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	ts, err := doc.TableSchema()
	require.NoError(t, err)
	assert.Len(t, ts.Columns, 18)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"xlsx"`)
}

func TestReport_JSON(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	data := oesCSV(t, nil, map[string]string{"Sp500": "Q"})

	rec := post(t, s, "/api/reports?format=json", map[string][2]string{"file": {"oes.csv", string(data)}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(HeaderDiagnostics))
	assert.NotEmpty(t, rec.Header().Get(HeaderRunID))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "oes.json")

	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Sections, 1)
	assert.Equal(t, 2, rep.RowCount)
	assert.Equal(t, "R2C4: Sp500 'Q' is not one of Y or N", rep.Diagnostics[0].Text)

	runs, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "oes.csv", runs[0].FileName)
	assert.Equal(t, "json", runs[0].Format)
	assert.Equal(t, "report-test", runs[0].UserAgent)
	assert.Equal(t, rec.Header().Get(HeaderRunID), runs[0].ID)
}

func TestReport_XLSXAttachment(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := post(t, s, "/api/reports?format=xlsx", map[string][2]string{"file": {"in/oes.csv", string(oesCSV(t, nil))}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get(HeaderDiagnostics))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment"))
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestReport_WriteErrorLogged(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s, _ := newTestServer(t, testConfig())
	body, ct := multipartBody(t, map[string][2]string{"file": {"oes.csv", string(oesCSV(t, nil))}})
	req := httptest.NewRequest(http.MethodPost, "/api/reports?format=xlsx", body)
	req.Header.Set("Content-Type", ct)

	w := brokenWriter{httptest.NewRecorder()}
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "report write error")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestReport_DefaultFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Report.DefaultFormat = "html"
	s, _ := newTestServer(t, cfg)

	rec := post(t, s, "/api/reports", map[string][2]string{"file": {"oes.csv", string(oesCSV(t, nil))}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), core.ReportTitle)
}

func TestReport_Errors(t *testing.T) {
	csv := string(oesCSV(t, nil))

	tests := []struct {
		name       string
		target     string
		parts      map[string][2]string
		wantStatus int
		wantCode   string
	}{
		{"unknown format", "/api/reports?format=pdf", map[string][2]string{"file": {"oes.csv", csv}}, http.StatusBadRequest, "RUN004"},
		{"missing file", "/api/reports?format=json", map[string][2]string{"other": {"oes.csv", csv}}, http.StatusBadRequest, "FILE004"},
		{"unsupported extension", "/api/reports?format=json", map[string][2]string{"file": {"oes.pdf", csv}}, http.StatusUnsupportedMediaType, "FILE002"},
		{"empty file", "/api/reports?format=json", map[string][2]string{"file": {"oes.csv", ""}}, http.StatusUnprocessableEntity, "FILE005"},
		{"bad schema override", "/api/reports?format=json", map[string][2]string{
			"file":   {"oes.csv", csv},
			"schema": {"s.json", `{"tables":[{"tableSchema":{"primaryKey":"Nope","columns":[{"name":"A"}]}}]}`},
		}, http.StatusUnprocessableEntity, "SCH002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, testConfig())
			rec := post(t, s, tt.target, tt.parts)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestReport_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Report.MaxFileSize = 64
	s, _ := newTestServer(t, cfg)

	rec := post(t, s, "/api/reports?format=json", map[string][2]string{"file": {"oes.csv", string(oesCSV(t, nil))}})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)
}

func TestValidate(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	data := oesCSV(t, nil, map[string]string{"RptDate": "202502", "OrderType": "BAD"}, map[string]string{"RprtEntityCd": "SAMPLE"})

	rec := post(t, s, "/api/validate", map[string][2]string{"file": {"oes.csv", string(data)}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.Digest, 16)
	assert.Equal(t, 3, resp.RowCount)
	assert.Equal(t, 1, resp.DiagnosticCount)
	require.Len(t, resp.Sections, 3)
	assert.Equal(t, "202502", resp.Sections[1].Key.Period)
	assert.Len(t, resp.Sections[1].Diagnostics, 1)
	assert.True(t, resp.Sections[2].Sample)
	assert.NotContains(t, rec.Body.String(), `"table"`)
}

func TestHistory(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		rec := post(t, s, "/api/validate", map[string][2]string{"file": {name, string(oesCSV(t, nil))}})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs []history.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 2)
	assert.Equal(t, "c.csv", resp.Runs[0].FileName)
	assert.Equal(t, "b.csv", resp.Runs[1].FileName)
}

func TestReportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ReportLimit: 1}
	s, _ := newTestServer(t, cfg)
	csv := string(oesCSV(t, nil))

	first := post(t, s, "/api/validate", map[string][2]string{"file": {"oes.csv", csv}})
	require.Equal(t, http.StatusOK, first.Code)

	second := post(t, s, "/api/validate", map[string][2]string{"file": {"oes.csv", csv}})
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, second).Code)

	// Other endpoints use the general budget.
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Security.AllowedOrigins = []string{"https://reports.example"}
	s, _ := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://reports.example")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://reports.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oesreport_")
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "oes.xlsx", outputName("dir/oes.csv", ".xlsx"))
	assert.Equal(t, "data.json", outputName("data", ".json"))
	assert.Equal(t, "report.html", outputName("", ".html"))
}
