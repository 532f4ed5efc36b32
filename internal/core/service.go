package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/zeebo/xxh3"

	"github.com/JonMunkholm/oesreport/internal/history"
	"github.com/JonMunkholm/oesreport/internal/logging"
	"github.com/JonMunkholm/oesreport/internal/metrics"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

// DefaultRunTimeout bounds a run including the wait for a limiter slot.
const DefaultRunTimeout = 2 * time.Minute

// ParseFunc turns the bytes of a named data file into pipeline input.
type ParseFunc func(name string, r io.Reader) (Input, error)

// ServiceConfig wires a Service. Only Parse is required.
type ServiceConfig struct {
	Parse   ParseFunc
	Schema  *schema.Document // Default: schema.Default()
	History history.Store    // Default: in-memory ring
	Limiter *RunLimiter      // Default: NewRunLimiter(0, 0)
	Clock   clockwork.Clock  // Default: real clock
	Timeout time.Duration    // Default: DefaultRunTimeout
}

// Service runs reports on behalf of the web handlers and the CLI.
type Service struct {
	parse    ParseFunc
	doc      *schema.Document
	compiled *schema.Schema
	history  history.Store
	limiter  *RunLimiter
	clock    clockwork.Clock
	timeout  time.Duration
}

// RunRequest is one data file to report on.
type RunRequest struct {
	FileName string
	Data     []byte
	// Schema overrides the service schema for this run only.
	Schema *schema.Document
	// Format is the output format the caller will render, kept for history.
	Format string
}

// RunResult is a generated report plus its bookkeeping.
type RunResult struct {
	ID        string
	Digest    string
	Report    *Report
	StartedAt time.Time
	Duration  time.Duration
}

// NewService compiles the configured schema and returns a ready Service.
// A schema that does not compile is a configuration error.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Parse == nil {
		return nil, errors.New("service: parse function is required")
	}

	doc := cfg.Schema
	if doc == nil {
		var err error
		if doc, err = schema.Default(); err != nil {
			return nil, err
		}
	}
	compiled, err := CompileSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	s := &Service{
		parse:    cfg.Parse,
		doc:      doc,
		compiled: compiled,
		history:  cfg.History,
		limiter:  cfg.Limiter,
		clock:    cfg.Clock,
		timeout:  cfg.Timeout,
	}
	if s.history == nil {
		s.history = history.NewMemoryStore(0)
	}
	if s.limiter == nil {
		s.limiter = NewRunLimiter(0, 0)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRunTimeout
	}
	return s, nil
}

// Schema returns the document the service validates against by default.
func (s *Service) Schema() *schema.Document {
	return s.doc
}

// Run parses req.Data, generates the report and records the run.
//
// Diagnostics never make Run fail. It returns an error only when the schema
// is unusable, the file cannot be parsed, no run slot frees up in time, or
// ctx is done before the run starts.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyReports) {
			metrics.RecordRejected()
		}
		return nil, err
	}
	defer s.limiter.Release()

	metrics.ReportsInFlight.Inc()
	defer metrics.ReportsInFlight.Dec()

	id := uuid.New().String()
	digest := Digest(req.Data)
	log := logging.WithFields(ctx, "run_id", id, "file", req.FileName)
	ctx = logging.WithLogger(ctx, log)
	log.Info("report run started", "bytes", len(req.Data), "digest", digest)

	start := s.clock.Now()
	rep, err := s.generate(req)
	elapsed := s.clock.Since(start)

	if err != nil {
		metrics.RecordRun(elapsed, 0, 0, err)
		log.Warn("report run failed", "error", err)
		return nil, err
	}
	metrics.RecordRun(elapsed, rep.RowCount, rep.DiagnosticCount(), nil)

	run := history.Run{
		ID:          id,
		FileName:    req.FileName,
		Digest:      digest,
		Rows:        rep.RowCount,
		Sections:    len(rep.Sections),
		Diagnostics: rep.DiagnosticCount(),
		Format:      req.Format,
		StartedAt:   start,
		Duration:    elapsed,
		ClientIP:    IPAddressFromContext(ctx),
		UserAgent:   UserAgentFromContext(ctx),
	}
	if err := s.history.Record(ctx, run); err != nil {
		// A history outage must not lose the report.
		log.Error("record run history", "error", err)
	}

	log.Info("report run completed",
		"rows", rep.RowCount,
		"sections", len(rep.Sections),
		"diagnostics", rep.DiagnosticCount(),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &RunResult{
		ID:        id,
		Digest:    digest,
		Report:    rep,
		StartedAt: start,
		Duration:  elapsed,
	}, nil
}

func (s *Service) generate(req RunRequest) (*Report, error) {
	compiled := s.compiled
	if req.Schema != nil {
		var err error
		if compiled, err = CompileSchema(req.Schema); err != nil {
			return nil, err
		}
	}

	in, err := s.parse(req.FileName, bytes.NewReader(req.Data))
	if err != nil {
		return nil, err
	}
	return Generate(compiled, in), nil
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	return s.history.Recent(ctx, limit)
}

// LimiterStatus reports how many runs are in flight.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for in-flight runs to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Digest is the hex xxh3 hash of data, used to spot repeated uploads.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
