package main

import (
	"errors"
	"flag"
	"log"

	"candle-analyzer/internal/aggregate"
	"candle-analyzer/internal/batch"
	"candle-analyzer/internal/config"
	"candle-analyzer/internal/loader"

	"github.com/joho/godotenv"
)

// In-memory multi-file analysis: per-file summaries and a linear trend fit
// over the consolidated closes. Nothing is persisted.
func main() {
	godotenv.Load()
	cfg := config.Load()

	dir := flag.String("dir", cfg.DataDir, "directory with SYMBOL_YYYY-MM-DD.csv files")
	flag.Parse()

	files, err := batch.Discover(*dir)
	if err != nil {
		log.Fatalf("discover files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no candle files found in %s", *dir)
	}

	agg := aggregate.New()
	loadErrors := 0
	for _, entry := range files {
		series, err := loader.LoadSeries(entry.Path, entry.Symbol, entry.Date)
		if err != nil {
			log.Printf("load %s: %v", entry.Path, err)
			loadErrors++
			continue
		}
		agg.Add(series)
	}
	log.Printf("Loaded %d of %d files (%d errors)", agg.SeriesCount(), len(files), loadErrors)

	for _, s := range agg.Summaries() {
		log.Printf("%s %s: %d records, price %.4f-%.4f, avg volume %.2f, avg trades %.1f",
			s.Symbol, s.Date.Format("2006-01-02"), s.Records, s.PriceMin, s.PriceMax, s.AvgVolume, s.AvgTrades)
	}

	pred, err := agg.PredictTrend()
	if err != nil {
		if errors.Is(err, aggregate.ErrNotEnoughData) {
			log.Println("Not enough data for a trend fit")
			return
		}
		log.Fatalf("fit trend: %v", err)
	}
	log.Printf("Trend over %d candles: %s, next close %.4f (slope %.6f, r2 %.3f)",
		pred.SampleSize, pred.Direction, pred.NextClose, pred.Slope, pred.RSquared)
}
