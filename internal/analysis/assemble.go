package analysis

import (
	"time"

	"candle-analyzer/internal/domain"
)

// Prediction baseline: no model runs in this path, so the predicted price is
// the current close at a fixed neutral confidence. A real model is an
// external, optional collaborator.
const neutralConfidence = 0.5

// BuildRecord maps a computed report onto one AnalysisRecord plus its ordered
// event rows. Field mapping and default substitution only; every number comes
// from the report.
func BuildRecord(series *domain.CandleSeries, report *Report, now time.Time) (domain.AnalysisRecord, []domain.SignificantEvent) {
	trend := domain.SentimentBearish
	if report.PriceAction.DailyChangePct >= 0 {
		trend = domain.SentimentBullish
	}

	record := domain.AnalysisRecord{
		Symbol: series.Symbol,
		Date:   series.Date,

		OpenPrice:      report.PriceAction.OpenPrice,
		ClosePrice:     report.PriceAction.ClosePrice,
		HighestPrice:   report.PriceAction.HighestPrice,
		LowestPrice:    report.PriceAction.LowestPrice,
		AvgPrice:       report.PriceAction.AvgPrice,
		DailyChangePct: report.PriceAction.DailyChangePct,
		PriceRangePct:  report.PriceAction.PriceRangePct,

		TotalVolume: report.Volume.TotalVolume,
		AvgVolume:   report.Volume.AvgVolume,
		MaxVolume:   report.Volume.MaxVolume,
		// Known quirk carried from the reference behavior: volume volatility
		// duplicates price volatility, no volume-return stdev is computed.
		VolumeVolatility: report.Indicators.Volatility,

		TotalTrades:          report.Activity.TotalTrades,
		AvgTradesPerInterval: report.Activity.AvgTradesPerInterval,
		TakerBuyRatio:        report.Activity.AvgTakerBuyRatio,
		Sentiment:            report.Activity.Sentiment,
		SentimentStrength:    report.Activity.SentimentStrength,

		SMA5:       report.Indicators.SMA5,
		SMA10:      report.Indicators.SMA10,
		SMA20:      report.Indicators.SMA20,
		Volatility: report.Indicators.Volatility,

		PredictedPrice:       report.PriceAction.ClosePrice,
		PredictionConfidence: neutralConfidence,
		TrendDirection:       trend,

		RiskScore:    report.Risk.Score,
		RiskCategory: report.Risk.Category,

		// Summary fields cover every detection, while the event rows below
		// keep only the ten most recent.
		EventCount:      report.EventSummary.Count,
		MaxVolumeRatio:  report.EventSummary.MaxVolumeRatio,
		MaxPriceMovePct: report.EventSummary.MaxPriceMovePct,

		IntervalCount: series.Len(),
		ProcessedAt:   now.UTC(),
	}

	events := make([]domain.SignificantEvent, len(report.Events))
	copy(events, report.Events)
	return record, events
}
