package core

import (
	"context"
)

// TrackMetadata describes the track we are trying to retrieve. It is built
// once per request from the metadata provider's response and never mutated.
type TrackMetadata struct {
	ID           string
	Title        string
	Artist       string
	Artists      []string
	Album        string
	CoverURL     string
	ReleaseDate  string
	DurationSecs int // 0 means unknown
}

// SearchExpression is a single backend-bound search directive.
type SearchExpression struct {
	Backend string
	Query   string
	Limit   int
}

// CandidateEntry is one raw result from a backend probe. The locator is an
// opaque backend reference sufficient to re-fetch the item.
type CandidateEntry struct {
	Locator      string
	Title        string
	DurationSecs int // 0 means unknown
	Channel      string
}

// ScoredCandidate pairs a candidate with its rank key. Smaller keys rank
// earlier; entries with unknown duration receive RankUnknown.
type ScoredCandidate struct {
	CandidateEntry
	RankKey int
}

// ProbeDiagnostic records one search expression that produced no usable
// candidates, with the failure that caused it (nil for a clean empty result).
type ProbeDiagnostic struct {
	Expression SearchExpression
	Err        error
}

// FetchArtifact describes a successfully retrieved and transcoded file.
type FetchArtifact struct {
	Path         string
	Title        string
	DurationSecs int
}

// FetchResult is the terminal outcome of one resolution.
type FetchResult struct {
	Artifact *FetchArtifact
	Locator  string
	Attempts int
}

// MetadataProvider looks up track metadata given a provider-native track ID.
type MetadataProvider interface {
	LookupTrack(ctx context.Context, trackID string) (*TrackMetadata, error)
	ExtractTrackID(rawURL string) (string, error)
}

// MediaBackend is the search/fetch capability behind the prober and fetcher.
// Search resolves an expression to structured metadata without moving bytes;
// Fetch retrieves and transcodes one item into outputPath.
type MediaBackend interface {
	Search(ctx context.Context, expr SearchExpression) ([]CandidateEntry, error)
	Fetch(ctx context.Context, locator, outputPath string) (*FetchArtifact, error)
}

// Tagger writes track metadata into a finished audio file.
type Tagger interface {
	Apply(ctx context.Context, path string, meta *TrackMetadata) error
}

// HistoryStore records resolution outcomes. Append-only on the resolve path.
type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
	Close() error
}

// HistoryEntry is one ledger row describing a finished resolution.
type HistoryEntry struct {
	TrackID      string
	Title        string
	Artist       string
	Status       string
	ArtifactPath string
	FailureKind  string
	Attempts     int
	CreatedAt    int64
}

// History statuses.
const (
	StatusCompleted    = "completed"
	StatusNoCandidates = "no_candidates"
	StatusExhausted    = "exhausted"
	StatusFailed       = "failed"
)
