package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"candle-analyzer/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type querierStub struct {
	records []domain.AnalysisRecord
	risk    []domain.RiskSummary
	err     error

	gotLimit   int
	gotSince   time.Time
	gotSymbols []string
	gotStart   time.Time
	gotEnd     time.Time
}

func (q *querierStub) TopPerformers(_ context.Context, limit int, since time.Time) ([]domain.AnalysisRecord, error) {
	q.gotLimit, q.gotSince = limit, since
	return q.records, q.err
}

func (q *querierStub) RiskBySymbol(context.Context) ([]domain.RiskSummary, error) {
	return q.risk, q.err
}

func (q *querierStub) CorrelationWindow(_ context.Context, symbols []string, start, end time.Time) ([]domain.AnalysisRecord, error) {
	q.gotSymbols, q.gotStart, q.gotEnd = symbols, start, end
	return q.records, q.err
}

func newTestRouter(q *querierStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), q)
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := doGet(t, newTestRouter(&querierStub{}), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestTopPerformersDefaults(t *testing.T) {
	q := &querierStub{records: []domain.AnalysisRecord{{Symbol: "BTCUSDT", DailyChangePct: 4.2}}}
	w := doGet(t, newTestRouter(q), "/api/analysis/top-performers")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if q.gotLimit != defaultTopLimit {
		t.Fatalf("expected default limit %d, got %d", defaultTopLimit, q.gotLimit)
	}
	if !q.gotSince.IsZero() {
		t.Fatalf("expected zero since, got %v", q.gotSince)
	}

	var body struct {
		Count   int                     `json:"count"`
		Results []domain.AnalysisRecord `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Count != 1 || body.Results[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestTopPerformersParams(t *testing.T) {
	q := &querierStub{}
	router := newTestRouter(q)

	w := doGet(t, router, "/api/analysis/top-performers?limit=5&since=2024-01-10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if q.gotLimit != 5 {
		t.Fatalf("expected limit 5, got %d", q.gotLimit)
	}
	if q.gotSince.Format("2006-01-02") != "2024-01-10" {
		t.Fatalf("unexpected since %v", q.gotSince)
	}

	if w := doGet(t, router, "/api/analysis/top-performers?limit=0"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
	if w := doGet(t, router, "/api/analysis/top-performers?since=jan-10"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad since, got %d", w.Code)
	}

	doGet(t, router, "/api/analysis/top-performers?limit=500")
	if q.gotLimit != maxTopLimit {
		t.Fatalf("expected limit clamped to %d, got %d", maxTopLimit, q.gotLimit)
	}
}

func TestTopPerformersRepoError(t *testing.T) {
	q := &querierStub{err: errors.New("connection refused")}
	w := doGet(t, newTestRouter(q), "/api/analysis/top-performers")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRiskBySymbol(t *testing.T) {
	q := &querierStub{risk: []domain.RiskSummary{{Symbol: "DOGEUSDT", AvgRiskScore: 0.9}}}
	w := doGet(t, newTestRouter(q), "/api/analysis/risk")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count   int                  `json:"count"`
		Results []domain.RiskSummary `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Count != 1 || body.Results[0].Symbol != "DOGEUSDT" {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestCorrelationWindow(t *testing.T) {
	q := &querierStub{}
	router := newTestRouter(q)

	w := doGet(t, router, "/api/analysis/correlation?symbols=BTCUSDT,ETHUSDT&start=2024-01-01&end=2024-01-31")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(q.gotSymbols) != 2 {
		t.Fatalf("unexpected symbols %v", q.gotSymbols)
	}
	if !q.gotEnd.After(q.gotStart) {
		t.Fatalf("unexpected range %v..%v", q.gotStart, q.gotEnd)
	}

	if w := doGet(t, router, "/api/analysis/correlation?start=2024-01-01&end=2024-01-31"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing symbols, got %d", w.Code)
	}
	if w := doGet(t, router, "/api/analysis/correlation?symbols=BTCUSDT&start=2024-02-01&end=2024-01-01"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
	if w := doGet(t, router, "/api/analysis/correlation?symbols=BTCUSDT&start=x&end=2024-01-31"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad start, got %d", w.Code)
	}
}
