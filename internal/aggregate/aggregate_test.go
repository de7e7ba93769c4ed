package aggregate

import (
	"errors"
	"math"
	"testing"
	"time"

	"candle-analyzer/internal/domain"
)

func series(symbol string, day int, closes ...float64) *domain.CandleSeries {
	date := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	s := &domain.CandleSeries{Symbol: symbol, Date: date}
	for i, c := range closes {
		open := date.Add(time.Duration(i) * 5 * time.Minute)
		s.Candles = append(s.Candles, domain.Candle{
			Symbol:         symbol,
			OpenTime:       open,
			CloseTime:      open.Add(5 * time.Minute),
			Open:           c,
			High:           c + 1,
			Low:            c - 1,
			Close:          c,
			Volume:         10,
			NumberOfTrades: 4,
		})
	}
	return s
}

func TestSummaries(t *testing.T) {
	agg := New()
	agg.Add(series("ETHUSDT", 16, 10, 20))
	agg.Add(series("BTCUSDT", 15, 100, 110, 90))
	agg.Add(nil) // ignored

	if agg.SeriesCount() != 2 {
		t.Fatalf("expected 2 series, got %d", agg.SeriesCount())
	}

	summaries := agg.Summaries()
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	// Ordered by symbol.
	if summaries[0].Symbol != "BTCUSDT" || summaries[1].Symbol != "ETHUSDT" {
		t.Fatalf("unexpected order: %+v", summaries)
	}

	btc := summaries[0]
	if btc.Records != 3 || btc.TotalTrades != 12 {
		t.Fatalf("unexpected BTC summary: %+v", btc)
	}
	if btc.PriceMin != 89 || btc.PriceMax != 111 {
		t.Fatalf("unexpected BTC price range: %+v", btc)
	}
	if math.Abs(btc.AvgVolume-10) > 1e-12 || math.Abs(btc.AvgTrades-4) > 1e-12 {
		t.Fatalf("unexpected BTC averages: %+v", btc)
	}
}

func TestConsolidatedClosesChronological(t *testing.T) {
	agg := New()
	agg.Add(series("BTCUSDT", 16, 3, 4))
	agg.Add(series("BTCUSDT", 15, 1, 2))

	closes := agg.ConsolidatedCloses()
	want := []float64{1, 2, 3, 4}
	if len(closes) != len(want) {
		t.Fatalf("expected %d closes, got %d", len(want), len(closes))
	}
	for i := range want {
		if closes[i] != want[i] {
			t.Fatalf("closes[%d]: expected %v, got %v", i, want[i], closes[i])
		}
	}
}

func TestFitTrendPerfectLine(t *testing.T) {
	pred, err := FitTrend([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(pred.NextClose-6) > 1e-9 {
		t.Fatalf("expected next close 6, got %v", pred.NextClose)
	}
	if math.Abs(pred.Slope-1) > 1e-9 {
		t.Fatalf("expected slope 1, got %v", pred.Slope)
	}
	if math.Abs(pred.RSquared-1) > 1e-9 {
		t.Fatalf("expected r-squared 1, got %v", pred.RSquared)
	}
	if pred.Direction != domain.SentimentBullish {
		t.Fatalf("expected BULLISH, got %s", pred.Direction)
	}
}

func TestFitTrendDownward(t *testing.T) {
	pred, err := FitTrend([]float64{10, 8, 6, 4})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if pred.Direction != domain.SentimentBearish {
		t.Fatalf("expected BEARISH, got %s", pred.Direction)
	}
	if math.Abs(pred.NextClose-2) > 1e-9 {
		t.Fatalf("expected next close 2, got %v", pred.NextClose)
	}
}

func TestFitTrendFlatSeries(t *testing.T) {
	pred, err := FitTrend([]float64{5, 5, 5})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if pred.Slope != 0 || pred.NextClose != 5 {
		t.Fatalf("unexpected flat fit: %+v", pred)
	}
	// ssTot is zero: a constant series is a perfect fit by convention.
	if pred.RSquared != 1 {
		t.Fatalf("expected r-squared 1 for constant series, got %v", pred.RSquared)
	}
}

func TestFitTrendNotEnoughData(t *testing.T) {
	if _, err := FitTrend([]float64{42}); !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
	agg := New()
	if _, err := agg.PredictTrend(); !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData for empty aggregator, got %v", err)
	}
}
