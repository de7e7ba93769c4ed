package aggregate

import (
	"errors"
	"sort"
	"time"

	"candle-analyzer/internal/domain"
	"candle-analyzer/internal/ta"
)

// Aggregator consolidates multiple candle series in memory. Nothing here is
// persisted; state lives only for the invocation that created the Aggregator.
type Aggregator struct {
	series []*domain.CandleSeries
}

// FileSummary describes one ingested series.
type FileSummary struct {
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	Records     int       `json:"records"`
	FirstOpen   time.Time `json:"first_open"`
	LastClose   time.Time `json:"last_close"`
	PriceMin    float64   `json:"price_min"`
	PriceMax    float64   `json:"price_max"`
	AvgVolume   float64   `json:"avg_volume"`
	AvgTrades   float64   `json:"avg_trades"`
	TotalTrades int64     `json:"total_trades"`
}

// TrendPrediction is a least-squares linear fit over the consolidated close
// prices, extrapolated one interval forward. R-squared doubles as confidence.
type TrendPrediction struct {
	NextClose  float64          `json:"next_close"`
	Slope      float64          `json:"slope"`
	Intercept  float64          `json:"intercept"`
	RSquared   float64          `json:"r_squared"`
	Direction  domain.Sentiment `json:"direction"`
	SampleSize int              `json:"sample_size"`
}

var ErrNotEnoughData = errors.New("aggregate: need at least two candles for a trend")

func New() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) Add(series *domain.CandleSeries) {
	if series == nil || series.Len() == 0 {
		return
	}
	a.series = append(a.series, series)
}

func (a *Aggregator) SeriesCount() int {
	return len(a.series)
}

// Summaries returns one summary per ingested series, ordered by symbol then date.
func (a *Aggregator) Summaries() []FileSummary {
	out := make([]FileSummary, 0, len(a.series))
	for _, s := range a.series {
		summary := FileSummary{
			Symbol:    s.Symbol,
			Date:      s.Date,
			Records:   s.Len(),
			FirstOpen: s.Candles[0].OpenTime,
			LastClose: s.Candles[s.Len()-1].CloseTime,
			PriceMin:  s.Candles[0].Low,
			PriceMax:  s.Candles[0].High,
		}
		var volumeSum float64
		for _, c := range s.Candles {
			if c.Low < summary.PriceMin {
				summary.PriceMin = c.Low
			}
			if c.High > summary.PriceMax {
				summary.PriceMax = c.High
			}
			volumeSum += c.Volume
			summary.TotalTrades += c.NumberOfTrades
		}
		summary.AvgVolume = volumeSum / float64(s.Len())
		summary.AvgTrades = float64(summary.TotalTrades) / float64(s.Len())
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ConsolidatedCloses merges every series and returns the close prices in
// chronological open-time order.
func (a *Aggregator) ConsolidatedCloses() []float64 {
	var all []domain.Candle
	for _, s := range a.series {
		all = append(all, s.Candles...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OpenTime.Before(all[j].OpenTime)
	})
	out := make([]float64, len(all))
	for i := range all {
		out[i] = all[i].Close
	}
	return out
}

// PredictTrend fits closes = intercept + slope*index by ordinary least
// squares and extrapolates the next value.
func (a *Aggregator) PredictTrend() (TrendPrediction, error) {
	closes := a.ConsolidatedCloses()
	return FitTrend(closes)
}

func FitTrend(values []float64) (TrendPrediction, error) {
	n := len(values)
	if n < 2 {
		return TrendPrediction{}, ErrNotEnoughData
	}

	// x = 0..n-1
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return TrendPrediction{}, ErrNotEnoughData
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	meanY, _ := ta.MeanStd(values)
	var ssRes, ssTot float64
	for i, y := range values {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - meanY) * (y - meanY)
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	if r2 < 0 {
		r2 = 0
	}

	direction := domain.SentimentBearish
	if slope >= 0 {
		direction = domain.SentimentBullish
	}
	return TrendPrediction{
		NextClose:  intercept + slope*fn,
		Slope:      slope,
		Intercept:  intercept,
		RSquared:   r2,
		Direction:  direction,
		SampleSize: n,
	}, nil
}
