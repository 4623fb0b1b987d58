// Command rate runs the pipeline once over a directory of round documents,
// writes the extracts and, when a database is configured, the output tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/grapple/internal/adapters/export"
	"github.com/okian/grapple/internal/adapters/postgres"
	"github.com/okian/grapple/internal/adapters/source"
	app "github.com/okian/grapple/internal/app"
	"github.com/okian/grapple/internal/config"
	"github.com/okian/grapple/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	var strict bool
	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	bindFlags(fs, cfg, &strict)
	_ = fs.Parse(os.Args[1:])

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	report, err := run(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rating run failed", logger.Error(err))
		os.Exit(1)
	}
	if strict && (!report.Reconciled || report.Counts.Warnings > 0) {
		log.Error(ctx, "run finished with data-quality problems",
			logger.Bool("reconciled", report.Reconciled),
			logger.Int("rating_inconsistencies", report.Counts.Warnings))
		os.Exit(2)
	}
}

// bindFlags lets flags override the loaded configuration.
func bindFlags(fs *flag.FlagSet, cfg *config.Config, strict *bool) {
	fs.StringVar(&cfg.InputDir, "input", cfg.InputDir, "directory of round documents (*.json)")
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "directory for the extracts")
	fs.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "extract format: csv or json")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres URL; empty skips the database")
	fs.StringVar(&cfg.OnInconsistency, "on-inconsistency", cfg.OnInconsistency, "halt or continue")
	fs.BoolVar(strict, "strict", false, "exit 2 when the report is not reconciled or ratings were inconsistent")
}

// run loads, rates and writes. It returns the written report.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) (export.RunReport, error) {
	svc, err := app.NewFromConfig(cfg, log)
	if err != nil {
		return export.RunReport{}, err
	}
	writer, err := export.NewWriter(cfg.OutputDir, cfg.OutputFormat, export.WithLogger(log.Named("export")))
	if err != nil {
		return export.RunReport{}, err
	}

	docs, err := source.NewLoader(cfg.InputDir, source.WithLogger(log.Named("source"))).Load(ctx)
	if err != nil {
		return export.RunReport{}, err
	}
	result, err := svc.Run(ctx, docs)
	if err != nil {
		return export.RunReport{}, err
	}

	report := export.NewRunReport(result.ID, result.Report)
	if err := writer.Write(ctx, result.Tables, report); err != nil {
		return report, fmt.Errorf("write extracts: %w", err)
	}

	if cfg.DatabaseURL != "" {
		sink, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.WithLogger(log.Named("postgres")))
		if err != nil {
			return report, err
		}
		defer sink.Close()
		if err := sink.EnsureSchema(ctx); err != nil {
			return report, err
		}
		if err := sink.WriteRun(ctx, result.Tables); err != nil {
			return report, err
		}
	}
	return report, nil
}
