package repository

import (
	"context"
	"fmt"
	"time"

	"candle-analyzer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createAnalysisTables = `
CREATE TABLE IF NOT EXISTS analysis_results (
    id                      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    symbol                  TEXT        NOT NULL,
    date                    DATE        NOT NULL,
    open_price              DOUBLE PRECISION NOT NULL,
    close_price             DOUBLE PRECISION NOT NULL,
    highest_price           DOUBLE PRECISION NOT NULL,
    lowest_price            DOUBLE PRECISION NOT NULL,
    avg_price               DOUBLE PRECISION NOT NULL,
    daily_change_pct        DOUBLE PRECISION NOT NULL,
    price_range_pct         DOUBLE PRECISION NOT NULL,
    total_volume            DOUBLE PRECISION NOT NULL,
    avg_volume              DOUBLE PRECISION NOT NULL,
    max_volume              DOUBLE PRECISION NOT NULL,
    volume_volatility       DOUBLE PRECISION NOT NULL,
    total_trades            BIGINT      NOT NULL,
    avg_trades_per_interval DOUBLE PRECISION NOT NULL,
    taker_buy_ratio         DOUBLE PRECISION NOT NULL,
    sentiment               TEXT        NOT NULL,
    sentiment_strength      DOUBLE PRECISION NOT NULL,
    sma_5                   DOUBLE PRECISION NOT NULL,
    sma_10                  DOUBLE PRECISION NOT NULL,
    sma_20                  DOUBLE PRECISION NOT NULL,
    volatility              DOUBLE PRECISION NOT NULL,
    predicted_price         DOUBLE PRECISION NOT NULL,
    prediction_confidence   DOUBLE PRECISION NOT NULL,
    trend_direction         TEXT        NOT NULL,
    risk_score              DOUBLE PRECISION NOT NULL,
    risk_category           TEXT        NOT NULL,
    event_count             INT         NOT NULL,
    max_volume_ratio        DOUBLE PRECISION NOT NULL,
    max_price_move_pct      DOUBLE PRECISION NOT NULL,
    interval_count          INT         NOT NULL,
    processed_at            TIMESTAMPTZ NOT NULL,
    UNIQUE (symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_analysis_symbol        ON analysis_results (symbol);
CREATE INDEX IF NOT EXISTS idx_analysis_date          ON analysis_results (date);
CREATE INDEX IF NOT EXISTS idx_analysis_change        ON analysis_results (daily_change_pct DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_risk          ON analysis_results (risk_score DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_sentiment     ON analysis_results (sentiment);

CREATE TABLE IF NOT EXISTS significant_events (
    id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    analysis_id      BIGINT      NOT NULL REFERENCES analysis_results(id) ON DELETE CASCADE,
    event_time       TIMESTAMPTZ NOT NULL,
    event_type       TEXT        NOT NULL,
    price_change_pct DOUBLE PRECISION NOT NULL,
    price            DOUBLE PRECISION NOT NULL,
    volume           DOUBLE PRECISION NOT NULL,
    volume_ratio     DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_analysis ON significant_events (analysis_id);
`

const upsertAnalysisSQL = `
INSERT INTO analysis_results (
    symbol, date,
    open_price, close_price, highest_price, lowest_price, avg_price,
    daily_change_pct, price_range_pct,
    total_volume, avg_volume, max_volume, volume_volatility,
    total_trades, avg_trades_per_interval, taker_buy_ratio, sentiment, sentiment_strength,
    sma_5, sma_10, sma_20, volatility,
    predicted_price, prediction_confidence, trend_direction,
    risk_score, risk_category,
    event_count, max_volume_ratio, max_price_move_pct,
    interval_count, processed_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
    $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
)
ON CONFLICT (symbol, date) DO UPDATE SET
    open_price = EXCLUDED.open_price,
    close_price = EXCLUDED.close_price,
    highest_price = EXCLUDED.highest_price,
    lowest_price = EXCLUDED.lowest_price,
    avg_price = EXCLUDED.avg_price,
    daily_change_pct = EXCLUDED.daily_change_pct,
    price_range_pct = EXCLUDED.price_range_pct,
    total_volume = EXCLUDED.total_volume,
    avg_volume = EXCLUDED.avg_volume,
    max_volume = EXCLUDED.max_volume,
    volume_volatility = EXCLUDED.volume_volatility,
    total_trades = EXCLUDED.total_trades,
    avg_trades_per_interval = EXCLUDED.avg_trades_per_interval,
    taker_buy_ratio = EXCLUDED.taker_buy_ratio,
    sentiment = EXCLUDED.sentiment,
    sentiment_strength = EXCLUDED.sentiment_strength,
    sma_5 = EXCLUDED.sma_5,
    sma_10 = EXCLUDED.sma_10,
    sma_20 = EXCLUDED.sma_20,
    volatility = EXCLUDED.volatility,
    predicted_price = EXCLUDED.predicted_price,
    prediction_confidence = EXCLUDED.prediction_confidence,
    trend_direction = EXCLUDED.trend_direction,
    risk_score = EXCLUDED.risk_score,
    risk_category = EXCLUDED.risk_category,
    event_count = EXCLUDED.event_count,
    max_volume_ratio = EXCLUDED.max_volume_ratio,
    max_price_move_pct = EXCLUDED.max_price_move_pct,
    interval_count = EXCLUDED.interval_count,
    processed_at = EXCLUDED.processed_at
RETURNING id`

const selectRecordColumns = `
    id, symbol, date,
    open_price, close_price, highest_price, lowest_price, avg_price,
    daily_change_pct, price_range_pct,
    total_volume, avg_volume, max_volume, volume_volatility,
    total_trades, avg_trades_per_interval, taker_buy_ratio, sentiment, sentiment_strength,
    sma_5, sma_10, sma_20, volatility,
    predicted_price, prediction_confidence, trend_direction,
    risk_score, risk_category,
    event_count, max_volume_ratio, max_price_move_pct,
    interval_count, processed_at`

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AnalysisRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAnalysisRepository(pool PgxPool, tracer trace.Tracer) *AnalysisRepository {
	return &AnalysisRepository{pool: pool, tracer: tracer}
}

func (r *AnalysisRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "analysis-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createAnalysisTables)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// StoreAnalysis upserts the record by its (symbol, date) natural key and
// replaces its event rows atomically. Calling it twice with the same input
// leaves exactly one analysis row and one copy of the event set.
func (r *AnalysisRepository) StoreAnalysis(ctx context.Context, record domain.AnalysisRecord, events []domain.SignificantEvent) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "analysis-repo.store-analysis")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin store analysis: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx, upsertAnalysisSQL, upsertArgs(record)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert analysis %s %s: %w", record.Symbol, record.Date.Format("2006-01-02"), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM significant_events WHERE analysis_id = $1`, id); err != nil {
		return 0, fmt.Errorf("clear events for analysis %d: %w", id, err)
	}

	if len(events) > 0 {
		batch := &pgx.Batch{}
		for _, e := range events {
			batch.Queue(
				`INSERT INTO significant_events (analysis_id, event_time, event_type, price_change_pct, price, volume, volume_ratio)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, e.Time, string(e.Type), e.PriceChangePct, e.Price, e.Volume, e.VolumeRatio,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range events {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return 0, fmt.Errorf("insert events for analysis %d: %w", id, err)
			}
		}
		if err := br.Close(); err != nil {
			return 0, fmt.Errorf("close event batch for analysis %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit store analysis: %w", err)
	}
	return id, nil
}

func (r *AnalysisRepository) IsProcessed(ctx context.Context, symbol string, date time.Time) (bool, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.is-processed")
	defer span.End()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM analysis_results WHERE symbol = $1 AND date = $2)`,
		symbol, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check processed %s %s: %w", symbol, date.Format("2006-01-02"), err)
	}
	return exists, nil
}

// TopPerformers returns stored analyses ordered by daily change descending.
// A zero since time means no lower bound.
func (r *AnalysisRepository) TopPerformers(ctx context.Context, limit int, since time.Time) ([]domain.AnalysisRecord, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.top-performers")
	defer span.End()

	query := `SELECT` + selectRecordColumns + `
 FROM analysis_results
 WHERE ($2::date IS NULL OR date >= $2)
 ORDER BY daily_change_pct DESC
 LIMIT $1`

	var sinceArg any
	if !since.IsZero() {
		sinceArg = since
	}
	rows, err := r.pool.Query(ctx, query, limit, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("query top performers: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *AnalysisRepository) RiskBySymbol(ctx context.Context) ([]domain.RiskSummary, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.risk-by-symbol")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
SELECT symbol, AVG(risk_score), AVG(volatility), COUNT(*), MIN(date), MAX(date)
FROM analysis_results
GROUP BY symbol
ORDER BY AVG(risk_score) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query risk by symbol: %w", err)
	}
	defer rows.Close()

	var out []domain.RiskSummary
	for rows.Next() {
		var s domain.RiskSummary
		if err := rows.Scan(&s.Symbol, &s.AvgRiskScore, &s.AvgVolatility, &s.DayCount, &s.FirstDate, &s.LastDate); err != nil {
			return nil, fmt.Errorf("scan risk summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk summaries: %w", err)
	}
	return out, nil
}

// CorrelationWindow returns rows for the given symbols within the inclusive
// date range, ordered by date then symbol, ready for correlation extraction.
func (r *AnalysisRepository) CorrelationWindow(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AnalysisRecord, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.correlation-window")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT`+selectRecordColumns+`
 FROM analysis_results
 WHERE symbol = ANY($1) AND date >= $2 AND date <= $3
 ORDER BY date, symbol`,
		symbols, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query correlation window: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func upsertArgs(rec domain.AnalysisRecord) []any {
	return []any{
		rec.Symbol, rec.Date,
		rec.OpenPrice, rec.ClosePrice, rec.HighestPrice, rec.LowestPrice, rec.AvgPrice,
		rec.DailyChangePct, rec.PriceRangePct,
		rec.TotalVolume, rec.AvgVolume, rec.MaxVolume, rec.VolumeVolatility,
		rec.TotalTrades, rec.AvgTradesPerInterval, rec.TakerBuyRatio, string(rec.Sentiment), rec.SentimentStrength,
		rec.SMA5, rec.SMA10, rec.SMA20, rec.Volatility,
		rec.PredictedPrice, rec.PredictionConfidence, string(rec.TrendDirection),
		rec.RiskScore, string(rec.RiskCategory),
		rec.EventCount, rec.MaxVolumeRatio, rec.MaxPriceMovePct,
		rec.IntervalCount, rec.ProcessedAt,
	}
}

func scanRecords(rows pgx.Rows) ([]domain.AnalysisRecord, error) {
	var out []domain.AnalysisRecord
	for rows.Next() {
		var rec domain.AnalysisRecord
		var sentiment, trend, risk string
		if err := rows.Scan(
			&rec.ID, &rec.Symbol, &rec.Date,
			&rec.OpenPrice, &rec.ClosePrice, &rec.HighestPrice, &rec.LowestPrice, &rec.AvgPrice,
			&rec.DailyChangePct, &rec.PriceRangePct,
			&rec.TotalVolume, &rec.AvgVolume, &rec.MaxVolume, &rec.VolumeVolatility,
			&rec.TotalTrades, &rec.AvgTradesPerInterval, &rec.TakerBuyRatio, &sentiment, &rec.SentimentStrength,
			&rec.SMA5, &rec.SMA10, &rec.SMA20, &rec.Volatility,
			&rec.PredictedPrice, &rec.PredictionConfidence, &trend,
			&rec.RiskScore, &risk,
			&rec.EventCount, &rec.MaxVolumeRatio, &rec.MaxPriceMovePct,
			&rec.IntervalCount, &rec.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		rec.Sentiment = domain.Sentiment(sentiment)
		rec.TrendDirection = domain.Sentiment(trend)
		rec.RiskCategory = domain.RiskCategory(risk)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis records: %w", err)
	}
	return out, nil
}
