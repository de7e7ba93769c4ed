package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"candle-analyzer/internal/batch"
	"candle-analyzer/internal/config"
	"candle-analyzer/internal/db"
	"candle-analyzer/internal/repository"
	"candle-analyzer/pkg/tracing"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	dir := flag.String("dir", cfg.DataDir, "directory with SYMBOL_YYYY-MM-DD.csv files")
	limit := flag.Int("limit", cfg.FileLimit, "max files to process, 0 = all")
	symbols := flag.String("symbols", strings.Join(cfg.Symbols, ","), "comma-separated symbol allow-list")
	force := flag.Bool("force", cfg.ForceReprocess, "reprocess files already stored")
	flag.Parse()

	ctx := context.Background()

	tp, tracer, err := tracing.InitTracer(ctx)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer tp.Shutdown(ctx)

	pool, err := db.InitPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("init postgres: %v", err)
	}
	defer pool.Close()

	repo := repository.NewAnalysisRepository(pool, tracer)
	if err := repo.RunMigrations(ctx); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	files, err := batch.Discover(*dir)
	if err != nil {
		log.Fatalf("discover files: %v", err)
	}
	log.Printf("Discovered %d candle files in %s", len(files), *dir)

	runner := batch.NewRunner(tracer, repo)
	stats := runner.Run(ctx, files, batch.Options{
		Limit:   *limit,
		Symbols: splitList(*symbols),
		Force:   *force,
	})

	log.Printf("Batch complete: seen=%d processed=%d stored=%d skipped=%d errors=%d",
		stats.FilesSeen, stats.Processed, stats.Stored, stats.Skipped, stats.Errors)
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
