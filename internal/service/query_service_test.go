package service

import (
	"context"
	"testing"
	"time"

	"candle-analyzer/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type fakeReader struct {
	topCalls    int
	corrSymbols []string
	records     []domain.AnalysisRecord
}

func (f *fakeReader) TopPerformers(_ context.Context, limit int, _ time.Time) ([]domain.AnalysisRecord, error) {
	f.topCalls++
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeReader) RiskBySymbol(context.Context) ([]domain.RiskSummary, error) {
	return []domain.RiskSummary{{Symbol: "BTCUSDT", AvgRiskScore: 0.4}}, nil
}

func (f *fakeReader) CorrelationWindow(_ context.Context, symbols []string, _, _ time.Time) ([]domain.AnalysisRecord, error) {
	f.corrSymbols = symbols
	return f.records, nil
}

func newTestService(repo AnalysisReader) *QueryService {
	return NewQueryService(trace.NewNoopTracerProvider().Tracer("service-test"), repo, nil)
}

func TestTopPerformersWithoutCache(t *testing.T) {
	repo := &fakeReader{records: []domain.AnalysisRecord{{Symbol: "BTCUSDT", DailyChangePct: 12}}}
	svc := newTestService(repo)

	records, err := svc.TopPerformers(context.Background(), 10, time.Time{})
	if err != nil {
		t.Fatalf("top performers: %v", err)
	}
	if len(records) != 1 || records[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected records %+v", records)
	}
	if repo.topCalls != 1 {
		t.Fatalf("expected repo hit, got %d calls", repo.topCalls)
	}
}

func TestCorrelationWindowNormalizesSymbols(t *testing.T) {
	repo := &fakeReader{}
	svc := newTestService(repo)

	_, err := svc.CorrelationWindow(context.Background(), []string{" btcusdt", "ETHUSDT", ""}, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("correlation window: %v", err)
	}
	if len(repo.corrSymbols) != 2 || repo.corrSymbols[0] != "BTCUSDT" || repo.corrSymbols[1] != "ETHUSDT" {
		t.Fatalf("symbols not normalized: %v", repo.corrSymbols)
	}
}

func TestCorrelationWindowEmptySymbols(t *testing.T) {
	repo := &fakeReader{}
	svc := newTestService(repo)

	records, err := svc.CorrelationWindow(context.Background(), []string{" ", ""}, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("correlation window: %v", err)
	}
	if records != nil {
		t.Fatalf("expected nil result for empty symbol list, got %v", records)
	}
	if repo.corrSymbols != nil {
		t.Fatal("repository must not be hit for an empty symbol list")
	}
}

func TestTopPerformersCacheKey(t *testing.T) {
	if got := topPerformersKey(5, time.Time{}); got != "top-performers:5:all" {
		t.Fatalf("unexpected key %q", got)
	}
	since := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := topPerformersKey(5, since); got != "top-performers:5:2024-01-15" {
		t.Fatalf("unexpected key %q", got)
	}
}
