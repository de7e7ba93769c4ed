package repository

import (
	"strings"
	"testing"
	"time"

	"candle-analyzer/internal/domain"
)

func TestUpsertArgsMatchesPlaceholders(t *testing.T) {
	args := upsertArgs(domain.AnalysisRecord{
		Symbol: "BTCUSDT",
		Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	// 32 insert columns, $1..$32 in the statement.
	if len(args) != 32 {
		t.Fatalf("expected 32 args, got %d", len(args))
	}
	if !strings.Contains(upsertAnalysisSQL, "$32") {
		t.Fatal("statement missing the last placeholder")
	}
	if strings.Contains(upsertAnalysisSQL, "$33") {
		t.Fatal("statement has more placeholders than args")
	}
}

func TestUpsertConflictTargetsNaturalKey(t *testing.T) {
	if !strings.Contains(upsertAnalysisSQL, "ON CONFLICT (symbol, date) DO UPDATE") {
		t.Fatal("upsert must replace on the (symbol, date) natural key")
	}
	if !strings.Contains(upsertAnalysisSQL, "RETURNING id") {
		t.Fatal("upsert must return the surrogate id for event inserts")
	}
}

func TestSchemaHasRequiredIndexes(t *testing.T) {
	required := []string{
		"UNIQUE (symbol, date)",
		"idx_analysis_symbol",
		"idx_analysis_date",
		"idx_analysis_change",
		"idx_analysis_risk",
		"idx_analysis_sentiment",
		"ON DELETE CASCADE",
	}
	for _, want := range required {
		if !strings.Contains(createAnalysisTables, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}

func TestUpsertArgsEnumValuesAreStrings(t *testing.T) {
	rec := domain.AnalysisRecord{
		Sentiment:      domain.SentimentBullish,
		TrendDirection: domain.SentimentBearish,
		RiskCategory:   domain.RiskMedium,
	}
	args := upsertArgs(rec)
	var found int
	for _, a := range args {
		if s, ok := a.(string); ok {
			switch s {
			case "BULLISH", "BEARISH", "MEDIUM":
				found++
			}
		}
	}
	if found != 3 {
		t.Fatalf("expected sentiment, trend and risk to bind as plain strings, found %d", found)
	}
}
