package domain

import "time"

// Candle represents a single fixed-interval OHLCV data point for one symbol.
type Candle struct {
	Symbol              string    `json:"symbol"`
	OpenTime            time.Time `json:"open_time"`
	CloseTime           time.Time `json:"close_time"`
	Open                float64   `json:"open"`
	High                float64   `json:"high"`
	Low                 float64   `json:"low"`
	Close               float64   `json:"close"`
	Volume              float64   `json:"volume"`
	QuoteVolume         float64   `json:"quote_volume"`
	NumberOfTrades      int64     `json:"number_of_trades"`
	TakerBuyBaseVolume  float64   `json:"taker_buy_base_volume"`
	TakerBuyQuoteVolume float64   `json:"taker_buy_quote_volume"`
}

// CandleSeries is one symbol's candles for one day, in input-file order.
// The loader does not re-sort; callers rely on the file being chronological.
type CandleSeries struct {
	Symbol  string
	Date    time.Time
	Candles []Candle
}

func (s *CandleSeries) Len() int {
	return len(s.Candles)
}

// Closes returns the close price of every candle, preserving order.
func (s *CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i := range s.Candles {
		out[i] = s.Candles[i].Close
	}
	return out
}

// Volumes returns the base-asset volume of every candle, preserving order.
func (s *CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i := range s.Candles {
		out[i] = s.Candles[i].Volume
	}
	return out
}
