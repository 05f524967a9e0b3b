// Command fcem scores KPI readings with a fuzzy comprehensive evaluation
// model described in YAML.
//
//	fcem -config model.yaml -input readings.csv [-format csv|json]
//	     [-workers N] [-metrics-addr :9090]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/go-fcem/infrastructure/fcem"
	"github.com/ahrav/go-fcem/infrastructure/middleware"
	"github.com/ahrav/go-fcem/internal/application"
	"github.com/ahrav/go-fcem/internal/domain"
	"github.com/ahrav/go-fcem/internal/ports"
)

type options struct {
	configPath  string
	inputPath   string
	outputPath  string
	format      string
	workers     int
	metricsAddr string
	logLevel    string
	logFormat   string
}

func main() {
	os.Exit(mainWithCode())
}

func mainWithCode() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(os.Stderr, "fcem: %v\n", err)
	return exitCode(err)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("fcem", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to the model YAML configuration (required)")
	fs.StringVar(&opts.inputPath, "input", "-", "Path to the readings file, or - for stdin")
	fs.StringVar(&opts.outputPath, "output", "-", "Path for the JSON results, or - for stdout")
	fs.StringVar(&opts.format, "format", "", "Input format: csv or json (default: from file extension, else csv)")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent row evaluations; 0 or 1 evaluates sequentially")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address until interrupted")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.configPath == "" {
		return opts, errors.New("-config is required")
	}
	if opts.workers < 0 {
		return opts, fmt.Errorf("-workers must not be negative, got %d", opts.workers)
	}
	if opts.format == "" {
		opts.format = formatFromPath(opts.inputPath)
	}
	return opts, nil
}

// run wires the loader, instrumentation and I/O. It is main without the
// process globals so it can be tested.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}

	var loaderOpts []fcem.Option
	if opts.workers > 0 {
		loaderOpts = append(loaderOpts, fcem.WithWorkers(opts.workers))
	}
	loader, err := application.NewModelLoader(logger, loaderOpts...)
	if err != nil {
		return err
	}

	loaded, err := loader.LoadFromFile(ctx, opts.configPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	rows, err := readInput(opts, stdin, loaded.Mapper)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var base ports.Estimator = loaded.Model
	if opts.workers > 1 {
		base = concurrentModel{loaded.Model}
	}
	metrics, err := middleware.NewPrometheusMetrics(reg)
	if err != nil {
		return err
	}
	est := middleware.NewInstrumentedEstimator(base, metrics, logger)

	evals, err := est.Predict(ctx, rows)
	if err != nil {
		return err
	}

	report := newReport(loaded.Model.Config(), evals)
	if err := writeOutput(opts.outputPath, stdout, report); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	logger.Info("evaluation complete", "model", est.Name(), "rows", len(evals))

	if opts.metricsAddr != "" {
		return serveMetrics(ctx, opts.metricsAddr, reg, logger)
	}
	return nil
}

// concurrentModel routes Predict to PredictConcurrent so the bounded worker
// pool sits underneath the instrumentation decorator.
type concurrentModel struct {
	*fcem.Model
}

func (c concurrentModel) Predict(ctx context.Context, rows [][]float64) ([]domain.Evaluation, error) {
	return c.PredictConcurrent(ctx, rows)
}

// serveMetrics exposes reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid -log-format %q: want text or json", format)
	}
}

// exitCode maps error kinds to distinct process exit statuses.
func exitCode(err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, domain.ErrInvalidConfiguration), errors.Is(err, ports.ErrConfigNotFound):
		return 3
	case errors.Is(err, domain.ErrShapeMismatch), errors.Is(err, domain.ErrInvalidReading):
		return 4
	default:
		return 1
	}
}
