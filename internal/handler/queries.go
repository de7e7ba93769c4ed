package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
	dateLayout      = "2006-01-02"
)

// TopPerformers returns stored analyses ordered by daily change descending.
// Query params: limit (default 10, max 100), since (YYYY-MM-DD, optional).
func (h *Handler) TopPerformers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.top-performers")
	defer span.End()

	limit := defaultTopLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxTopLimit {
			n = maxTopLimit
		}
		limit = n
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
			return
		}
		since = parsed
	}

	records, err := h.queries.TopPerformers(ctx, limit, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "results": records})
}

// RiskBySymbol returns per-symbol aggregate risk, highest mean risk first.
func (h *Handler) RiskBySymbol(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.risk-by-symbol")
	defer span.End()

	summaries, err := h.queries.RiskBySymbol(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(summaries), "results": summaries})
}

// CorrelationWindow returns rows for the given symbols within an inclusive
// date range, ordered by date then symbol.
// Query params: symbols (comma-separated, required), start, end (YYYY-MM-DD, required).
func (h *Handler) CorrelationWindow(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.correlation-window")
	defer span.End()

	symbols := splitSymbols(c.Query("symbols"))
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols is required"})
		return
	}

	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not precede start"})
		return
	}

	records, err := h.queries.CorrelationWindow(ctx, symbols, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "results": records})
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
