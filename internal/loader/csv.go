package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"candle-analyzer/internal/domain"
)

// Column layout of one symbol-day candle file. The first line is a header and
// is skipped without inspection.
const (
	colOpenTime = iota
	colOpen
	colHigh
	colLow
	colClose
	colVolume
	colCloseTime
	colQuoteVolume
	colNumberOfTrades
	colTakerBuyBase
	colTakerBuyQuote
	colSymbol
	columnCount
)

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseError reports a malformed row or field. A single bad row fails the
// whole file; partial loads would break the all-or-nothing upsert contract.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadSeries reads one CSV file into a CandleSeries for the given symbol-day.
// Rows are kept in file order; the loader never re-sorts.
func LoadSeries(path, symbol string, date time.Time) (*domain.CandleSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	series := &domain.CandleSeries{Symbol: symbol, Date: date}
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		if line == 1 {
			continue
		}
		candle, err := parseRow(record)
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		if candle.Symbol == "" {
			candle.Symbol = symbol
		}
		series.Candles = append(series.Candles, candle)
	}
	return series, nil
}

func parseRow(record []string) (domain.Candle, error) {
	var c domain.Candle
	if len(record) < columnCount {
		return c, fmt.Errorf("expected %d columns, got %d", columnCount, len(record))
	}

	var err error
	if c.OpenTime, err = parseTime(record[colOpenTime]); err != nil {
		return c, fmt.Errorf("open_time: %w", err)
	}
	if c.CloseTime, err = parseTime(record[colCloseTime]); err != nil {
		return c, fmt.Errorf("close_time: %w", err)
	}

	floats := []struct {
		name string
		col  int
		dst  *float64
	}{
		{"open", colOpen, &c.Open},
		{"high", colHigh, &c.High},
		{"low", colLow, &c.Low},
		{"close", colClose, &c.Close},
		{"volume", colVolume, &c.Volume},
		{"quote_asset_volume", colQuoteVolume, &c.QuoteVolume},
		{"taker_buy_base_asset_volume", colTakerBuyBase, &c.TakerBuyBaseVolume},
		{"taker_buy_quote_asset_volume", colTakerBuyQuote, &c.TakerBuyQuoteVolume},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[f.col]), 64)
		if err != nil {
			return c, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	trades, err := strconv.ParseInt(strings.TrimSpace(record[colNumberOfTrades]), 10, 64)
	if err != nil {
		return c, fmt.Errorf("number_of_trades: %w", err)
	}
	c.NumberOfTrades = trades
	c.Symbol = strings.TrimSpace(record[colSymbol])
	return c, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
