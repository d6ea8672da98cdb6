package core

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// fakeBackend scripts search and fetch outcomes per expression/locator and
// records the order of fetch attempts.
type fakeBackend struct {
	mu            sync.Mutex
	searchResults map[string][]CandidateEntry
	searchErrs    map[string]error
	fetchErrs     map[string]error
	fetchCalls    []string
	searchCalls   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		searchResults: make(map[string][]CandidateEntry),
		searchErrs:    make(map[string]error),
		fetchErrs:     make(map[string]error),
	}
}

func exprKey(expr SearchExpression) string {
	return expr.Backend + "|" + expr.Query
}

func (b *fakeBackend) Search(_ context.Context, expr SearchExpression) ([]CandidateEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := exprKey(expr)
	b.searchCalls = append(b.searchCalls, key)

	if err, ok := b.searchErrs[key]; ok {
		return nil, err
	}
	return b.searchResults[key], nil
}

func (b *fakeBackend) Fetch(_ context.Context, locator, outputPath string) (*FetchArtifact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fetchCalls = append(b.fetchCalls, locator)

	if err, ok := b.fetchErrs[locator]; ok {
		return nil, err
	}

	if err := os.WriteFile(outputPath, []byte("audio"), 0o644); err != nil {
		return nil, err
	}

	return &FetchArtifact{
		Path:         outputPath,
		Title:        "fetched " + locator,
		DurationSecs: 200,
	}, nil
}

func (b *fakeBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fetchCalls)
}

// fakeProvider serves scripted metadata lookups.
type fakeProvider struct {
	tracks map[string]*TrackMetadata
}

func (p *fakeProvider) LookupTrack(_ context.Context, trackID string) (*TrackMetadata, error) {
	meta, ok := p.tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("track %s not found", trackID)
	}
	return meta, nil
}

func (p *fakeProvider) ExtractTrackID(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("empty link")
	}
	return rawURL, nil
}

// fakeHistory collects recorded entries in memory.
type fakeHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func (h *fakeHistory) Record(_ context.Context, entry HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return nil
}

func (h *fakeHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.entries) {
		limit = len(h.entries)
	}
	return h.entries[:limit], nil
}

func (h *fakeHistory) Close() error { return nil }
