package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/address-classifier/app/config"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/internal/search"
)

// Nạp danh sách world-cities (JSON: name, country, subcountry, geonameid) vào Meilisearch
func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	file := flag.String("file", "world-cities.json", "world-cities JSON file")
	batchSize := flag.Int("batch", 5000, "documents per AddDocuments call")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall seeding deadline")
	flag.Parse()

	log, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := seed(ctx, cfg, *file, *batchSize, log); err != nil {
		log.Error("Seeding failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, path string, batchSize int, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cities, err := search.LoadWorldCities(f)
	if err != nil {
		return err
	}
	log.Info("World cities loaded", zap.Int("cities", len(cities)))

	client := search.NewClientWrapper(cfg.Meilisearch.URL, cfg.Meilisearch.APIKey, cfg.Meilisearch.Index)
	if err := client.Health(); err != nil {
		return err
	}

	// Cấu hình index trước khi nạp documents
	settingsTask, err := client.ConfigureIndex()
	if err != nil {
		return err
	}
	if err := client.WaitForTask(ctx, settingsTask, time.Second); err != nil {
		return err
	}
	log.Info("Index settings applied", zap.String("index", cfg.Meilisearch.Index))

	tasks, err := client.AddCities(search.ToDocs(cities), batchSize)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := client.WaitForTask(ctx, task, time.Second); err != nil {
			return err
		}
	}

	log.Info("Seeding completed",
		zap.String("index", cfg.Meilisearch.Index),
		zap.Int("documents", len(cities)),
		zap.Int("tasks", len(tasks)))
	return nil
}
