package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JonMunkholm/oesreport/internal/history"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

// lineParse treats each line of the file as a RptDate for an otherwise valid row.
func lineParse(_ string, r io.Reader) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, err
	}
	var rows []*Row
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		rows = append(rows, textRow(i+1, validFields(), map[string]string{"RptDate": line}))
	}
	return Input{Rows: rows, HeaderCount: 18}, nil
}

func newTestService(t *testing.T, cfg ServiceConfig) *Service {
	t.Helper()
	if cfg.Parse == nil {
		cfg.Parse = lineParse
	}
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestService_Run(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	store := history.NewMemoryStore(10)
	svc := newTestService(t, ServiceConfig{History: store, Clock: clock})

	ctx := ContextWithIPAddress(context.Background(), "10.1.2.3")
	res, err := svc.Run(ctx, RunRequest{FileName: "oes.csv", Data: []byte("202501\n202513\n"), Format: "xlsx"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ID == "" || len(res.Digest) != 16 {
		t.Errorf("ID = %q, Digest = %q", res.ID, res.Digest)
	}
	if len(res.Report.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(res.Report.Sections))
	}
	if res.Report.DiagnosticCount() != 1 {
		t.Errorf("diagnostics = %q, want the invalid month", diagnosticTexts(res.Report.Diagnostics))
	}

	runs, err := svc.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("history = %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != res.ID || got.Rows != 2 || got.Diagnostics != 1 || got.Format != "xlsx" {
		t.Errorf("history run = %+v", got)
	}
	if got.ClientIP != "10.1.2.3" {
		t.Errorf("ClientIP = %q, want 10.1.2.3", got.ClientIP)
	}
	if !got.StartedAt.Equal(clock.Now()) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, clock.Now())
	}
}

func TestService_DigestIsStable(t *testing.T) {
	if Digest([]byte("abc")) != Digest([]byte("abc")) {
		t.Error("Digest differs for identical input")
	}
	if Digest([]byte("abc")) == Digest([]byte("abd")) {
		t.Error("Digest equal for different input")
	}
}

func TestService_SchemaOverride(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})

	bad := &schema.Document{Tables: []schema.Table{{TableSchema: schema.TableSchema{
		Columns:    []schema.Column{{Name: "A"}},
		PrimaryKey: schema.StringList{"B"},
	}}}}

	_, err := svc.Run(context.Background(), RunRequest{FileName: "x.csv", Data: []byte("202501"), Schema: bad})
	if !errors.Is(err, schema.ErrInvalidSchema) {
		t.Errorf("Run() error = %v, want ErrInvalidSchema", err)
	}
	if got := MapError(err).Code; got != "SCH002" {
		t.Errorf("MapError code = %q, want SCH002", got)
	}
}

func TestService_ParseErrorFailsRun(t *testing.T) {
	parseErr := errors.New("read x.pdf: unsupported format")
	svc := newTestService(t, ServiceConfig{
		Parse: func(string, io.Reader) (Input, error) { return Input{}, parseErr },
	})

	if _, err := svc.Run(context.Background(), RunRequest{FileName: "x.pdf"}); !errors.Is(err, parseErr) {
		t.Errorf("Run() error = %v, want %v", err, parseErr)
	}
	runs, _ := svc.History(context.Background(), 10)
	if len(runs) != 0 {
		t.Errorf("failed run recorded in history")
	}
}

func TestService_LimiterRejects(t *testing.T) {
	limiter := NewRunLimiter(1, 20*time.Millisecond)
	svc := newTestService(t, ServiceConfig{Limiter: limiter})

	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer limiter.Release()

	_, err := svc.Run(context.Background(), RunRequest{FileName: "x.csv", Data: []byte("202501")})
	if !errors.Is(err, ErrTooManyReports) {
		t.Errorf("Run() error = %v, want ErrTooManyReports", err)
	}
}

func TestService_CancelledBeforeStart(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Run(ctx, RunRequest{FileName: "x.csv"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestNewService_RequiresParse(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Error("NewService() without Parse should fail")
	}
}
