package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/address-classifier/app/bootstrap"
	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/internal/classifier"
	"github.com/address-classifier/internal/ingest"
	"github.com/address-classifier/internal/metrics"
	"github.com/address-classifier/internal/report"
)

func main() {
	// Load configuration
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	input := flag.String("input", cfg.Worker.InputFile, "tab-delimited input file with a header row")
	output := flag.String("output", cfg.Worker.OutputFile, "xlsx report path")
	flag.Parse()

	log, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Starting Address Classifier Worker...",
		zap.String("input", *input),
		zap.String("output", *output))

	// Ctrl-C hủy batch đang chạy
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input, *output, log); err != nil {
		log.Error("Worker failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Info("Worker exited")
}

func run(ctx context.Context, cfg *config.Config, input, output string, log *zap.Logger) error {
	start := time.Now()

	dataset, err := ingest.ReadFile(input, ingest.Options{
		AddressColumn: cfg.Worker.AddressColumn,
		CountryColumn: cfg.Worker.CountryColumn,
	})
	if err != nil {
		return err
	}
	log.Info("Input loaded", zap.Int("records", len(dataset.Records)))

	comps, err := bootstrap.Build(ctx, cfg, metrics.New(), log)
	if err != nil {
		return err
	}
	defer comps.Close(context.Background())

	results, err := comps.Pipeline.ClassifyBatch(ctx, dataset.Records)
	if err != nil {
		if classifier.IsCancelled(err) {
			log.Warn("Batch cancelled before completion, no report written")
		}
		return err
	}

	if err := report.WriteFile(output, report.Input{
		Header:       dataset.Header,
		AddressIndex: dataset.AddressIndex,
		Results:      results,
	}); err != nil {
		return err
	}

	summary := summarize(results)
	log.Info("Batch classification finished",
		zap.Int("records", len(results)),
		zap.Int("complete", summary.complete),
		zap.Int("too_short", summary.byOutcome[models.OutcomeTooShort]),
		zap.Int("parse_failure", summary.byOutcome[models.OutcomeParseFailure]),
		zap.String("report", output),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

type batchSummary struct {
	complete  int
	byOutcome map[models.Outcome]int
}

func summarize(results []models.ClassificationResult) batchSummary {
	s := batchSummary{byOutcome: map[models.Outcome]int{}}
	for _, r := range results {
		s.byOutcome[r.Outcome]++
		if r.Resolved.Complete {
			s.complete++
		}
	}
	return s
}
