package core

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildQueries_NonEmptyMetadata(t *testing.T) {
	builder := NewQueryBuilder(5)

	meta := &TrackMetadata{
		Title:  "midnight city",
		Artist: "m83",
	}

	exprs, err := builder.BuildQueries(meta)
	if err != nil {
		t.Fatalf("BuildQueries() returned error: %v", err)
	}

	if len(exprs) == 0 {
		t.Fatal("BuildQueries() returned no expressions")
	}

	backends := make(map[string]bool)
	for _, expr := range exprs {
		if expr.Query == "" {
			t.Error("BuildQueries() produced an empty query")
		}
		if expr.Limit != 5 {
			t.Errorf("expression limit = %d, expected 5", expr.Limit)
		}
		if !strings.Contains(expr.Query, "midnight city") && !strings.Contains(expr.Query, "m83") {
			t.Errorf("query %q contains neither title nor artist", expr.Query)
		}
		backends[expr.Backend] = true
	}

	for _, backend := range []string{BackendYouTube, BackendYTMusic, BackendSoundCloud} {
		if !backends[backend] {
			t.Errorf("no expression targets backend %q", backend)
		}
	}
}

func TestBuildQueries_EmptyMetadata(t *testing.T) {
	builder := NewQueryBuilder(5)

	_, err := builder.BuildQueries(&TrackMetadata{})
	if err == nil {
		t.Fatal("BuildQueries() with empty metadata should fail")
	}
	if !errors.Is(err, ErrInvalidMetadata) {
		t.Errorf("expected ErrInvalidMetadata, got %v", err)
	}
}

func TestBuildQueries_WhitespaceOnlyMetadata(t *testing.T) {
	builder := NewQueryBuilder(5)

	_, err := builder.BuildQueries(&TrackMetadata{Title: "   ", Artist: "\t"})
	if !errors.Is(err, ErrInvalidMetadata) {
		t.Errorf("expected ErrInvalidMetadata for whitespace-only metadata, got %v", err)
	}
}

func TestBuildQueries_TitleOnly(t *testing.T) {
	builder := NewQueryBuilder(3)

	exprs, err := builder.BuildQueries(&TrackMetadata{Title: "intro"})
	if err != nil {
		t.Fatalf("BuildQueries() returned error: %v", err)
	}

	if len(exprs) == 0 {
		t.Fatal("BuildQueries() with title-only metadata returned no expressions")
	}

	for _, expr := range exprs {
		if !strings.Contains(expr.Query, "intro") {
			t.Errorf("query %q does not contain the title", expr.Query)
		}
	}
}

func TestBuildQueries_StripsDecorations(t *testing.T) {
	builder := NewQueryBuilder(5)

	meta := &TrackMetadata{
		Title:  "one more time (feat. somebody)",
		Artist: "daft punk",
	}

	exprs, err := builder.BuildQueries(meta)
	if err != nil {
		t.Fatalf("BuildQueries() returned error: %v", err)
	}

	for _, expr := range exprs {
		if strings.Contains(expr.Query, "feat") {
			t.Errorf("query %q still contains the feat. decoration", expr.Query)
		}
	}
}

func TestBuildQueries_DeterministicOrder(t *testing.T) {
	builder := NewQueryBuilder(5)
	meta := &TrackMetadata{Title: "song", Artist: "artist"}

	first, err := builder.BuildQueries(meta)
	if err != nil {
		t.Fatalf("BuildQueries() returned error: %v", err)
	}
	second, err := builder.BuildQueries(meta)
	if err != nil {
		t.Fatalf("BuildQueries() returned error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expression counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("expression %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}
