package batch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"candle-analyzer/internal/analysis"
	"candle-analyzer/internal/domain"
	"candle-analyzer/internal/loader"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FileEntry is one (symbol, date, path) tuple produced by discovery.
type FileEntry struct {
	Symbol string
	Date   time.Time
	Path   string
}

// Stats summarizes one batch run.
type Stats struct {
	FilesSeen int
	Processed int
	Stored    int
	Skipped   int
	Errors    int
}

// AnalysisStore is the persistence surface the runner needs.
type AnalysisStore interface {
	StoreAnalysis(ctx context.Context, record domain.AnalysisRecord, events []domain.SignificantEvent) (int64, error)
	IsProcessed(ctx context.Context, symbol string, date time.Time) (bool, error)
}

type Options struct {
	Limit   int      // cap on files processed, 0 = unlimited
	Symbols []string // allow-list, empty = all
	Force   bool     // reprocess files whose (symbol, date) is already stored
}

// Runner drives the per-file pipeline: load, analyze, assemble, store. Files
// are processed strictly sequentially; the natural key constraint is the only
// concurrency guard needed.
type Runner struct {
	tracer trace.Tracer
	store  AnalysisStore
	load   func(path, symbol string, date time.Time) (*domain.CandleSeries, error)
	now    func() time.Time
}

func NewRunner(tracer trace.Tracer, store AnalysisStore) *Runner {
	return &Runner{
		tracer: tracer,
		store:  store,
		load:   loader.LoadSeries,
		now:    time.Now,
	}
}

// Run processes the given files. A single file's failure is counted and
// logged, never fatal to the batch.
func (r *Runner) Run(ctx context.Context, files []FileEntry, opts Options) Stats {
	ctx, span := r.tracer.Start(ctx, "batch.run")
	defer span.End()

	var stats Stats
	allowed := allowSet(opts.Symbols)

	for _, entry := range files {
		if opts.Limit > 0 && stats.Processed >= opts.Limit {
			break
		}
		stats.FilesSeen++
		if allowed != nil {
			if _, ok := allowed[strings.ToUpper(entry.Symbol)]; !ok {
				continue
			}
		}

		if !opts.Force {
			done, err := r.store.IsProcessed(ctx, entry.Symbol, entry.Date)
			if err != nil {
				log.Printf("batch: check %s: %v", entry.Path, err)
				stats.Errors++
				continue
			}
			if done {
				stats.Skipped++
				continue
			}
		}

		stats.Processed++
		if err := r.processFile(ctx, entry); err != nil {
			log.Printf("batch: process %s: %v", entry.Path, err)
			stats.Errors++
			continue
		}
		stats.Stored++
	}

	span.SetAttributes(
		attribute.Int("batch.files_seen", stats.FilesSeen),
		attribute.Int("batch.stored", stats.Stored),
		attribute.Int("batch.errors", stats.Errors),
	)
	return stats
}

func (r *Runner) processFile(ctx context.Context, entry FileEntry) error {
	ctx, span := r.tracer.Start(ctx, "batch.process-file")
	defer span.End()

	series, err := r.load(entry.Path, entry.Symbol, entry.Date)
	if err != nil {
		return err
	}
	report, err := analysis.Analyze(series)
	if err != nil {
		return err
	}
	record, events := analysis.BuildRecord(series, report, r.now())
	_, err = r.store.StoreAnalysis(ctx, record, events)
	return err
}

func allowSet(symbols []string) map[string]struct{} {
	if len(symbols) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Discover lists SYMBOL_YYYY-MM-DD.csv files directly under dir, sorted by
// path. Files that do not match the naming pattern are ignored.
func Discover(dir string) ([]FileEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	var files []FileEntry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".csv") {
			continue
		}
		symbol, date, ok := parseFileName(de.Name())
		if !ok {
			log.Printf("batch: skipping unrecognized file name %s", de.Name())
			continue
		}
		files = append(files, FileEntry{
			Symbol: symbol,
			Date:   date,
			Path:   filepath.Join(dir, de.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func parseFileName(name string) (string, time.Time, bool) {
	base := strings.TrimSuffix(name, ".csv")
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return "", time.Time{}, false
	}
	symbol := strings.ToUpper(base[:idx])
	date, err := time.Parse("2006-01-02", base[idx+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return symbol, date, true
}
