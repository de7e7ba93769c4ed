package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"candle-analyzer/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const topPerformersCacheTTL = 60 * time.Second

// AnalysisReader is the read-side repository surface.
type AnalysisReader interface {
	TopPerformers(ctx context.Context, limit int, since time.Time) ([]domain.AnalysisRecord, error)
	RiskBySymbol(ctx context.Context) ([]domain.RiskSummary, error)
	CorrelationWindow(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AnalysisRecord, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// QueryService serves stored analysis queries, caching the hot top-performers
// query in redis. A nil redis client disables caching.
type QueryService struct {
	tracer trace.Tracer
	repo   AnalysisReader
	redis  RedisClient
}

func NewQueryService(tracer trace.Tracer, repo AnalysisReader, redisClient RedisClient) *QueryService {
	return &QueryService{tracer: tracer, repo: repo, redis: redisClient}
}

func (s *QueryService) TopPerformers(ctx context.Context, limit int, since time.Time) ([]domain.AnalysisRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.top-performers")
	defer span.End()

	cacheKey := topPerformersKey(limit, since)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var records []domain.AnalysisRecord
			if err := json.Unmarshal([]byte(cached), &records); err == nil {
				return records, nil
			}
		}
	}

	records, err := s.repo.TopPerformers(ctx, limit, since)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && len(records) > 0 {
		if data, err := json.Marshal(records); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, topPerformersCacheTTL).Err(); err != nil {
				log.Printf("cache top performers: %v", err)
			}
		}
	}
	return records, nil
}

func (s *QueryService) RiskBySymbol(ctx context.Context) ([]domain.RiskSummary, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.risk-by-symbol")
	defer span.End()

	return s.repo.RiskBySymbol(ctx)
}

func (s *QueryService) CorrelationWindow(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AnalysisRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query-service.correlation-window")
	defer span.End()

	normalized := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" {
			normalized = append(normalized, sym)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}
	return s.repo.CorrelationWindow(ctx, normalized, start, end)
}

func topPerformersKey(limit int, since time.Time) string {
	if since.IsZero() {
		return fmt.Sprintf("top-performers:%d:all", limit)
	}
	return fmt.Sprintf("top-performers:%d:%s", limit, since.Format("2006-01-02"))
}
