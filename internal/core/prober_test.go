package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testSearchConfig() SearchConfig {
	return SearchConfig{
		ResultsPerQuery: 5,
		Concurrency:     2,
		ProbeTimeout:    5 * time.Second,
	}
}

func TestProbe_DiscardsEntriesWithoutLocator(t *testing.T) {
	backend := newFakeBackend()
	expr := SearchExpression{Backend: BackendYouTube, Query: "q", Limit: 5}
	backend.searchResults[exprKey(expr)] = []CandidateEntry{
		{Locator: "a", Title: "usable"},
		{Title: "no locator"},
		{Locator: "b", Title: "also usable"},
	}

	prober := NewProber(backend, testSearchConfig(), zap.NewNop())

	entries, err := prober.Probe(context.Background(), expr)
	if err != nil {
		t.Fatalf("Probe() returned error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Probe() returned %d entries, expected 2", len(entries))
	}
	if entries[0].Locator != "a" || entries[1].Locator != "b" {
		t.Errorf("Probe() kept wrong entries: %+v", entries)
	}
}

func TestProbeAll_AggregatesInExpressionOrder(t *testing.T) {
	backend := newFakeBackend()
	exprs := []SearchExpression{
		{Backend: BackendYouTube, Query: "one"},
		{Backend: BackendYTMusic, Query: "two"},
	}
	backend.searchResults[exprKey(exprs[0])] = []CandidateEntry{{Locator: "a"}, {Locator: "b"}}
	backend.searchResults[exprKey(exprs[1])] = []CandidateEntry{{Locator: "c"}}

	prober := NewProber(backend, testSearchConfig(), zap.NewNop())

	aggregate, diagnostics := prober.ProbeAll(context.Background(), exprs)

	if len(diagnostics) != 0 {
		t.Errorf("ProbeAll() produced %d diagnostics, expected 0", len(diagnostics))
	}

	expectedOrder := []string{"a", "b", "c"}
	if len(aggregate) != len(expectedOrder) {
		t.Fatalf("ProbeAll() returned %d entries, expected %d", len(aggregate), len(expectedOrder))
	}
	for i, locator := range expectedOrder {
		if aggregate[i].Locator != locator {
			t.Errorf("position %d: got %q, expected %q", i, aggregate[i].Locator, locator)
		}
	}
}

func TestProbeAll_FailedExpressionDoesNotAbortOthers(t *testing.T) {
	backend := newFakeBackend()
	exprs := []SearchExpression{
		{Backend: BackendYouTube, Query: "broken"},
		{Backend: BackendYouTube, Query: "fine"},
	}
	backend.searchErrs[exprKey(exprs[0])] = &BackendError{
		Backend: BackendYouTube,
		Kind:    KindTimeout,
		Err:     errors.New("deadline exceeded"),
	}
	backend.searchResults[exprKey(exprs[1])] = []CandidateEntry{{Locator: "survivor"}}

	prober := NewProber(backend, testSearchConfig(), zap.NewNop())

	aggregate, diagnostics := prober.ProbeAll(context.Background(), exprs)

	if len(aggregate) != 1 || aggregate[0].Locator != "survivor" {
		t.Errorf("ProbeAll() aggregate = %+v, expected the surviving entry", aggregate)
	}

	if len(diagnostics) != 1 {
		t.Fatalf("ProbeAll() produced %d diagnostics, expected 1", len(diagnostics))
	}
	if diagnostics[0].Expression.Query != "broken" {
		t.Errorf("diagnostic expression = %q, expected the failed one", diagnostics[0].Expression.Query)
	}
	if diagnostics[0].Err == nil {
		t.Error("diagnostic for failed expression should carry the error")
	}
}

func TestProbeAll_AllEmptyIsNotAnError(t *testing.T) {
	backend := newFakeBackend()
	exprs := []SearchExpression{
		{Backend: BackendYouTube, Query: "nothing"},
		{Backend: BackendYTMusic, Query: "nada"},
	}

	prober := NewProber(backend, testSearchConfig(), zap.NewNop())

	aggregate, diagnostics := prober.ProbeAll(context.Background(), exprs)

	if len(aggregate) != 0 {
		t.Errorf("ProbeAll() returned %d entries, expected 0", len(aggregate))
	}
	if len(diagnostics) != 2 {
		t.Errorf("ProbeAll() produced %d diagnostics, expected 2", len(diagnostics))
	}
	for _, diag := range diagnostics {
		if diag.Err != nil {
			t.Errorf("empty result diagnostic should not carry an error, got %v", diag.Err)
		}
	}
}

func TestProbeAll_NoExpressions(t *testing.T) {
	prober := NewProber(newFakeBackend(), testSearchConfig(), zap.NewNop())

	aggregate, diagnostics := prober.ProbeAll(context.Background(), nil)
	if len(aggregate) != 0 || len(diagnostics) != 0 {
		t.Errorf("ProbeAll(nil) = (%d entries, %d diagnostics), expected none", len(aggregate), len(diagnostics))
	}
}
