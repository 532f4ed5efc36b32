// Command oesreport generates Order Execution Summary reports from data files.
//
//	oesreport [--schema path] [--format xlsx|html|json] [--out dir] FILE...
//
// Each input produces {out}/{basename}.{ext}. Data problems are reported in
// the output and do not change the exit status; only files that cannot be
// read or rendered do.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/history"
	"github.com/JonMunkholm/oesreport/internal/ingest"
	"github.com/JonMunkholm/oesreport/internal/logging"
	"github.com/JonMunkholm/oesreport/internal/render"
	"github.com/JonMunkholm/oesreport/internal/schema"
)

func main() {
	// A .env file is optional for the CLI; flags cover everything.
	_ = godotenv.Load()

	err := run(context.Background(), os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	schemaPath    string
	format        string
	outDir        string
	dynamicTyping bool
	concurrency   int
	logLevel      string
	logFormat     string
	files         []string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("oesreport", flag.ContinueOnError)
	opts := &options{}

	fs.StringVar(&opts.schemaPath, "schema", "", "CSVW schema file (JSON or YAML); default is the built-in OES schema")
	fs.StringVarP(&opts.format, "format", "f", "xlsx", "output format ("+strings.Join(render.Formats(), ", ")+")")
	fs.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	fs.BoolVar(&opts.dynamicTyping, "dynamic-typing", false, "convert numeric cells to numbers and empty cells to nulls")
	fs.IntVarP(&opts.concurrency, "concurrency", "c", core.DefaultMaxConcurrentReports, "files processed in parallel")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json, pretty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.files = fs.Args()
	if len(opts.files) == 0 {
		return nil, errors.New("no input files")
	}
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	logging.Setup(opts.logLevel, opts.logFormat)

	renderer, err := render.Lookup(opts.format)
	if err != nil {
		return err
	}

	doc, err := schema.Default()
	if opts.schemaPath != "" {
		doc, err = schema.LoadFile(opts.schemaPath)
	}
	if err != nil {
		return err
	}

	service, err := core.NewService(core.ServiceConfig{
		Parse:   ingest.Parser(ingest.Options{DynamicTyping: opts.dynamicTyping}),
		Schema:  doc,
		History: history.NewMemoryStore(len(opts.files)),
		Limiter: core.NewRunLimiter(opts.concurrency, time.Hour),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// One result per file so output order matches argument order.
	results := make([]fileResult, len(opts.files))

	g := new(errgroup.Group)
	g.SetLimit(opts.concurrency)
	for i, name := range opts.files {
		g.Go(func() error {
			results[i] = processFile(ctx, service, renderer, name, opts.outDir)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		switch {
		case res.err != nil:
			errs = append(errs, res.err)
		case res.diagnostics > 0:
			fmt.Fprintf(stdout, "Output for %s will show %d errors.\n", res.name, res.diagnostics)
		}
	}
	return errors.Join(errs...)
}

type fileResult struct {
	name        string
	output      string
	diagnostics int
	err         error
}

// processFile reports on one input file and writes the rendered output.
// A file with no data rows produces no output file.
func processFile(ctx context.Context, service *core.Service, renderer render.Renderer, name, outDir string) fileResult {
	res := fileResult{name: name}

	data, err := os.ReadFile(name)
	if err != nil {
		res.err = fmt.Errorf("read %s: %w", name, err)
		return res
	}

	run, err := service.Run(ctx, core.RunRequest{
		FileName: name,
		Data:     data,
		Format:   renderer.Format(),
	})
	if err != nil {
		res.err = fmt.Errorf("%s: %w", name, err)
		return res
	}

	res.diagnostics = run.Report.DiagnosticCount()
	if len(run.Report.Sections) == 0 {
		slog.Warn(fmt.Sprintf("no data in %s, no output file", name))
		return res
	}

	res.output = filepath.Join(outDir, outputName(name, renderer.Extension()))
	if err := writeOutput(res.output, renderer, run.Report); err != nil {
		res.err = err
		return res
	}

	slog.Info("report written",
		"file", name,
		"output", res.output,
		"sections", len(run.Report.Sections),
		"diagnostics", res.diagnostics,
	)
	return res
}

func writeOutput(path string, renderer render.Renderer, rep *core.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return render.Write(f, renderer, rep)
}

func outputName(name, ext string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
