package handler

import (
	"context"
	"time"

	"candle-analyzer/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// AnalysisQuerier is the query surface behind the read API.
type AnalysisQuerier interface {
	TopPerformers(ctx context.Context, limit int, since time.Time) ([]domain.AnalysisRecord, error)
	RiskBySymbol(ctx context.Context) ([]domain.RiskSummary, error)
	CorrelationWindow(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AnalysisRecord, error)
}

type Handler struct {
	tracer  trace.Tracer
	queries AnalysisQuerier
}

func New(tracer trace.Tracer, queries AnalysisQuerier) *Handler {
	return &Handler{tracer: tracer, queries: queries}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/analysis/top-performers", h.TopPerformers)
	r.GET("/api/analysis/risk", h.RiskBySymbol)
	r.GET("/api/analysis/correlation", h.CorrelationWindow)
}
