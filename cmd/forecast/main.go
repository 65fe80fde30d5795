package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"revforecast/internal/config"
	"revforecast/internal/exporter"
	"revforecast/internal/infrastructure"
	"revforecast/internal/loader"
	"revforecast/internal/services"
	api "revforecast/pkg/contracts/api/v1"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configFile string
	rawDir     string
	reportsDir string
	request    api.ForecastRequest
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &cliOptions{}
	var compare string
	var mape bool
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file (defaults to config.yaml or configs/config.yaml)")
	fs.StringVar(&opts.rawDir, "data", "", "directory holding the raw tables (overrides paths.raw_dir)")
	fs.StringVar(&opts.reportsDir, "reports", "", "directory for exported reports (overrides paths.reports_dir)")
	fs.StringVar(&opts.request.Model, "model", "", "forecasting engine")
	fs.IntVar(&opts.request.Horizon, "horizon", 0, "number of held-out days")
	fs.StringVar(&compare, "compare", "", "comma separated models evaluated on the same split")
	fs.StringVar(&opts.request.Variant, "variant", "", "covariate variant: revenue or orders")
	fs.StringVar(&opts.request.TargetColumn, "target", "", "forecast target: y, order_count or avg_order_value")
	fs.StringVar(&opts.request.RollingPolicy, "rolling", "", "rolling window policy: full or partial")
	fs.StringVar(&opts.request.EntityScope, "entity-scope", "", "entity feature scope: train or all")
	fs.BoolVar(&mape, "mape", true, "report MAPE")
	fs.BoolVar(&opts.request.Export, "export", false, "write CSV and XLSX reports for the run")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "mape" {
			opts.request.MAPE = &mape
		}
	})
	for _, name := range strings.Split(compare, ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.request.CompareModels = append(opts.request.CompareModels, name)
		}
	}
	return opts, nil
}

func loadConfig(opts *cliOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.rawDir != "" {
		cfg.Paths.RawDir = opts.rawDir
	}
	if opts.reportsDir != "" {
		cfg.Paths.ReportsDir = opts.reportsDir
	}
	return cfg, nil
}

// run executes one forecast and prints the response as JSON to stdout.
func run(ctx context.Context, cfg *config.Config, req api.ForecastRequest, stdout io.Writer, logger *slog.Logger) error {
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}
	if req.Export {
		if err := paths.EnsureDirectories(); err != nil {
			return err
		}
	}

	metrics, err := infrastructure.NewPipelineMetrics(nil)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	svc := services.NewForecastService(cfg,
		loader.New(paths.RawDir, cfg.Loader, logger),
		exporter.NewReportExporter(paths, logger),
		metrics, logger)

	resp, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Forecast completed",
		slog.String("run_id", resp.RunID),
		slog.String("model", resp.Model),
		slog.Float64("mae", resp.Metrics.Metrics.MAE),
		slog.Float64("rmse", resp.Metrics.Metrics.RMSE),
		slog.Int("report_files", len(resp.ReportFiles)))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// newLogger keeps stdout free for the JSON result by sending console logs
// to stderr.
func newLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	if cfg.Output != "console" && cfg.Output != "stdout" {
		return infrastructure.NewLogger(cfg)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	return infrastructure.NewLoggerWithWriter(os.Stderr, &slog.HandlerOptions{Level: level}), nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts.request, os.Stdout, logger); err != nil {
		logger.Error("Forecast failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
