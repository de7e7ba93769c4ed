package domain

import "time"

type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
)

type RiskCategory string

const (
	RiskLow    RiskCategory = "LOW"
	RiskMedium RiskCategory = "MEDIUM"
	RiskHigh   RiskCategory = "HIGH"
)

type EventType string

const (
	EventVolumeSpike   EventType = "VolumeSpike"
	EventPriceMovement EventType = "PriceMovement"
	EventMajorEvent    EventType = "MajorEvent"
)

type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// AnalysisRecord is one symbol-day analysis summary, the unit of persistence.
// (Symbol, Date) is the natural key; reprocessing the same file replaces the row.
type AnalysisRecord struct {
	ID     int64     `json:"id"`
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`

	OpenPrice      float64 `json:"open_price"`
	ClosePrice     float64 `json:"close_price"`
	HighestPrice   float64 `json:"highest_price"`
	LowestPrice    float64 `json:"lowest_price"`
	AvgPrice       float64 `json:"avg_price"`
	DailyChangePct float64 `json:"daily_change_pct"`
	PriceRangePct  float64 `json:"price_range_pct"`

	TotalVolume      float64 `json:"total_volume"`
	AvgVolume        float64 `json:"avg_volume"`
	MaxVolume        float64 `json:"max_volume"`
	VolumeVolatility float64 `json:"volume_volatility"`

	TotalTrades          int64     `json:"total_trades"`
	AvgTradesPerInterval float64   `json:"avg_trades_per_interval"`
	TakerBuyRatio        float64   `json:"taker_buy_ratio"`
	Sentiment            Sentiment `json:"sentiment"`
	SentimentStrength    float64   `json:"sentiment_strength"`

	SMA5       float64 `json:"sma_5"`
	SMA10      float64 `json:"sma_10"`
	SMA20      float64 `json:"sma_20"`
	Volatility float64 `json:"volatility"`

	PredictedPrice       float64   `json:"predicted_price"`
	PredictionConfidence float64   `json:"prediction_confidence"`
	TrendDirection       Sentiment `json:"trend_direction"`

	RiskScore    float64      `json:"risk_score"`
	RiskCategory RiskCategory `json:"risk_category"`

	EventCount      int     `json:"event_count"`
	MaxVolumeRatio  float64 `json:"max_volume_ratio"`
	MaxPriceMovePct float64 `json:"max_price_move_pct"`

	IntervalCount int       `json:"interval_count"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// SignificantEvent is a candle flagged for abnormal volume and/or price movement.
// Child of an AnalysisRecord, immutable once written.
type SignificantEvent struct {
	ID             int64     `json:"id"`
	AnalysisID     int64     `json:"analysis_id"`
	Time           time.Time `json:"time"`
	Type           EventType `json:"type"`
	PriceChangePct float64   `json:"price_change_pct"`
	Price          float64   `json:"price"`
	Volume         float64   `json:"volume"`
	VolumeRatio    float64   `json:"volume_ratio"`
}

// TradingSignal is an advisory produced by the metrics engine. Signals are
// returned to the caller as-is, never persisted, and may contradict each other.
type TradingSignal struct {
	Type     SignalType `json:"type"`
	Reason   string     `json:"reason"`
	Strength float64    `json:"strength"`
}

// RiskSummary aggregates stored analyses per symbol.
type RiskSummary struct {
	Symbol        string    `json:"symbol"`
	AvgRiskScore  float64   `json:"avg_risk_score"`
	AvgVolatility float64   `json:"avg_volatility"`
	DayCount      int       `json:"day_count"`
	FirstDate     time.Time `json:"first_date"`
	LastDate      time.Time `json:"last_date"`
}
