package analysis

import (
	"errors"
	"math"
	"sort"

	"candle-analyzer/internal/domain"
	"candle-analyzer/internal/ta"
)

// Policy constants. These are product decisions, not derived values; tests
// assert on them literally.
const (
	volumeSpikeMultiplier = 1.5
	significantMovePct    = 2.0
	riskChangeWeight      = 0.1
	riskVolatilityWeight  = 0.05
	riskHighThreshold     = 0.7
	riskMediumThreshold   = 0.4
	maxEventsKept         = 10
	proximityPct          = 2.0
)

// ErrEmptySeries is returned when a series has no candles to derive metrics from.
var ErrEmptySeries = errors.New("analysis: empty candle series")

type PriceAction struct {
	OpenPrice      float64
	ClosePrice     float64
	HighestPrice   float64
	LowestPrice    float64
	AvgPrice       float64
	DailyChangePct float64
	PriceRangePct  float64
}

type TradingActivity struct {
	TotalTrades          int64
	AvgTradesPerInterval float64
	AvgTakerBuyRatio     float64
	Sentiment            domain.Sentiment
	SentimentStrength    float64
}

type Indicators struct {
	SMA5       float64
	SMA10      float64
	SMA20      float64
	Volatility float64
}

// Report is everything the engine derives from one CandleSeries.
type Report struct {
	PriceAction  PriceAction
	Activity     TradingActivity
	Indicators   Indicators
	Volume       VolumeStats
	Events       []domain.SignificantEvent
	EventSummary EventSummary
	Risk         RiskAssessment
	Signals      []domain.TradingSignal
}

// EventSummary aggregates every detection for the day, including the ones
// truncated out of the kept event list.
type EventSummary struct {
	Count           int
	MaxVolumeRatio  float64
	MaxPriceMovePct float64
}

type VolumeStats struct {
	TotalVolume float64
	AvgVolume   float64
	MaxVolume   float64
}

type RiskAssessment struct {
	Score    float64
	Category domain.RiskCategory
}

// Analyze derives the full metrics report for one series. Pure: no I/O, no
// mutation of the input.
func Analyze(series *domain.CandleSeries) (*Report, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}

	closes := series.Closes()
	price := ComputePriceAction(series.Candles)
	activity := ComputeTradingActivity(series.Candles)
	indicators := ComputeIndicators(closes, price.ClosePrice)
	volume := ComputeVolumeStats(series.Candles)
	events := detectEvents(series.Candles, volume.AvgVolume)
	risk := AssessRisk(price.DailyChangePct, indicators.Volatility)

	report := &Report{
		PriceAction:  price,
		Activity:     activity,
		Indicators:   indicators,
		Volume:       volume,
		Events:       capEvents(events),
		EventSummary: summarizeEvents(events),
		Risk:         risk,
	}
	report.Signals = GenerateSignals(report)
	return report, nil
}

func ComputePriceAction(candles []domain.Candle) PriceAction {
	pa := PriceAction{
		OpenPrice:    candles[0].Open,
		ClosePrice:   candles[len(candles)-1].Close,
		HighestPrice: candles[0].High,
		LowestPrice:  candles[0].Low,
	}
	var closeSum float64
	for _, c := range candles {
		if c.High > pa.HighestPrice {
			pa.HighestPrice = c.High
		}
		if c.Low < pa.LowestPrice {
			pa.LowestPrice = c.Low
		}
		closeSum += c.Close
	}
	pa.AvgPrice = closeSum / float64(len(candles))

	// A single candle has no day to move across: change is pinned to 0,
	// matching the volatility and event boundaries for length-1 series.
	if len(candles) > 1 && pa.OpenPrice != 0 {
		pa.DailyChangePct = (pa.ClosePrice - pa.OpenPrice) / pa.OpenPrice * 100
	}
	if pa.LowestPrice != 0 {
		pa.PriceRangePct = (pa.HighestPrice - pa.LowestPrice) / pa.LowestPrice * 100
	}
	return pa
}

// ComputeTradingActivity derives trade counts and the taker-buy sentiment
// proxy. Zero-volume candles are excluded from the ratio mean so a dead
// interval does not drag the average toward zero.
func ComputeTradingActivity(candles []domain.Candle) TradingActivity {
	var act TradingActivity
	var ratioSum float64
	ratioCount := 0
	for _, c := range candles {
		act.TotalTrades += c.NumberOfTrades
		if c.Volume > 0 {
			ratioSum += c.TakerBuyBaseVolume / c.Volume
			ratioCount++
		}
	}
	act.AvgTradesPerInterval = float64(act.TotalTrades) / float64(len(candles))
	if ratioCount > 0 {
		act.AvgTakerBuyRatio = ratioSum / float64(ratioCount)
	}

	act.Sentiment = domain.SentimentBearish
	if act.AvgTakerBuyRatio > 0.5 {
		act.Sentiment = domain.SentimentBullish
	}
	act.SentimentStrength = math.Abs(act.AvgTakerBuyRatio-0.5) * 2
	return act
}

// ComputeIndicators returns the latest SMA per window, falling back to the
// close price when the series is shorter than the window, plus the population
// stdev of simple close returns.
func ComputeIndicators(closes []float64, closePrice float64) Indicators {
	ind := Indicators{
		SMA5:  latestSMA(closes, 5, closePrice),
		SMA10: latestSMA(closes, 10, closePrice),
		SMA20: latestSMA(closes, 20, closePrice),
	}
	returns := ta.SimpleReturns(closes)
	if len(returns) > 0 {
		_, ind.Volatility = ta.MeanStd(returns)
	}
	return ind
}

func latestSMA(closes []float64, period int, fallback float64) float64 {
	sma := ta.SMASeries(closes, period)
	if len(sma) == 0 {
		return fallback
	}
	return sma[len(sma)-1]
}

func ComputeVolumeStats(candles []domain.Candle) VolumeStats {
	var vs VolumeStats
	for _, c := range candles {
		vs.TotalVolume += c.Volume
		if c.Volume > vs.MaxVolume {
			vs.MaxVolume = c.Volume
		}
	}
	vs.AvgVolume = vs.TotalVolume / float64(len(candles))
	return vs
}

// DetectEvents flags candles with abnormal volume (above 1.5x the series
// average) or an absolute interval move above 2%. Both flags together make a
// MajorEvent. The result is sorted by time descending and capped at the 10
// most recent.
func DetectEvents(candles []domain.Candle, avgVolume float64) []domain.SignificantEvent {
	return capEvents(detectEvents(candles, avgVolume))
}

// detectEvents returns every detection sorted by time descending, uncapped.
func detectEvents(candles []domain.Candle, avgVolume float64) []domain.SignificantEvent {
	threshold := volumeSpikeMultiplier * avgVolume

	var events []domain.SignificantEvent
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		var changePct float64
		if prev != 0 {
			changePct = (candles[i].Close - prev) / prev * 100
		}

		volumeSpike := candles[i].Volume > threshold
		significantMove := math.Abs(changePct) > significantMovePct
		if !volumeSpike && !significantMove {
			continue
		}

		eventType := domain.EventPriceMovement
		if volumeSpike && significantMove {
			eventType = domain.EventMajorEvent
		} else if volumeSpike {
			eventType = domain.EventVolumeSpike
		}

		var ratio float64
		if avgVolume != 0 {
			ratio = candles[i].Volume / avgVolume
		}
		events = append(events, domain.SignificantEvent{
			Time:           candles[i].OpenTime,
			Type:           eventType,
			PriceChangePct: changePct,
			Price:          candles[i].Close,
			Volume:         candles[i].Volume,
			VolumeRatio:    ratio,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.After(events[j].Time)
	})
	return events
}

func capEvents(events []domain.SignificantEvent) []domain.SignificantEvent {
	if len(events) > maxEventsKept {
		return events[:maxEventsKept]
	}
	return events
}

// summarizeEvents totals over the full detection list, so a day with more
// than ten events still reports its true count and extremes.
func summarizeEvents(events []domain.SignificantEvent) EventSummary {
	s := EventSummary{Count: len(events)}
	for _, e := range events {
		if e.VolumeRatio > s.MaxVolumeRatio {
			s.MaxVolumeRatio = e.VolumeRatio
		}
		if move := math.Abs(e.PriceChangePct); move > s.MaxPriceMovePct {
			s.MaxPriceMovePct = move
		}
	}
	return s
}

func AssessRisk(dailyChangePct, volatility float64) RiskAssessment {
	score := math.Abs(dailyChangePct)*riskChangeWeight + volatility*riskVolatilityWeight
	score = math.Min(score, 1.0)

	category := domain.RiskLow
	switch {
	case score > riskHighThreshold:
		category = domain.RiskHigh
	case score > riskMediumThreshold:
		category = domain.RiskMedium
	}
	return RiskAssessment{Score: score, Category: category}
}

// GenerateSignals produces advisory buy/sell signals from a computed report.
// Multiple signals can co-exist; no conflict resolution is attempted.
func GenerateSignals(r *Report) []domain.TradingSignal {
	var signals []domain.TradingSignal

	if r.Indicators.SMA5 > r.Indicators.SMA10 && r.Indicators.SMA10 > r.Indicators.SMA20 {
		signals = append(signals, domain.TradingSignal{
			Type:     domain.SignalBuy,
			Reason:   "moving averages aligned bullish (SMA5 > SMA10 > SMA20)",
			Strength: 0.7,
		})
	} else if r.Indicators.SMA5 < r.Indicators.SMA10 && r.Indicators.SMA10 < r.Indicators.SMA20 {
		signals = append(signals, domain.TradingSignal{
			Type:     domain.SignalSell,
			Reason:   "moving averages aligned bearish (SMA5 < SMA10 < SMA20)",
			Strength: 0.7,
		})
	}

	if r.Activity.SentimentStrength > 0.5 {
		signalType := domain.SignalSell
		if r.Activity.Sentiment == domain.SentimentBullish {
			signalType = domain.SignalBuy
		}
		signals = append(signals, domain.TradingSignal{
			Type:     signalType,
			Reason:   "strong taker-buy sentiment",
			Strength: r.Activity.SentimentStrength,
		})
	}

	closePrice := r.PriceAction.ClosePrice
	if r.PriceAction.HighestPrice > 0 {
		distToHigh := (r.PriceAction.HighestPrice - closePrice) / r.PriceAction.HighestPrice * 100
		if distToHigh >= 0 && distToHigh < proximityPct {
			signals = append(signals, domain.TradingSignal{
				Type:     domain.SignalSell,
				Reason:   "price within 2% of period high",
				Strength: 0.5,
			})
		}
	}
	if r.PriceAction.LowestPrice > 0 {
		distToLow := (closePrice - r.PriceAction.LowestPrice) / r.PriceAction.LowestPrice * 100
		if distToLow >= 0 && distToLow < proximityPct {
			signals = append(signals, domain.TradingSignal{
				Type:     domain.SignalBuy,
				Reason:   "price within 2% of period low",
				Strength: 0.5,
			})
		}
	}
	return signals
}
