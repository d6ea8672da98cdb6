package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Resolver orchestrates one resolution: build queries, probe all, rank,
// fetch best-effort. Each stage runs exactly once per request; the resolver
// is the only component that turns an empty-but-valid intermediate result
// into a hard failure.
type Resolver struct {
	cfg      *Config
	provider MetadataProvider
	builder  *QueryBuilder
	prober   *Prober
	fetcher  *Fetcher
	tagger   Tagger
	history  HistoryStore
	logger   *zap.Logger
}

func NewResolver(
	cfg *Config,
	provider MetadataProvider,
	backend MediaBackend,
	tagger Tagger,
	history HistoryStore,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		cfg:      cfg,
		provider: provider,
		builder:  NewQueryBuilder(cfg.Search.ResultsPerQuery),
		prober:   NewProber(backend, cfg.Search, logger.Named("prober")),
		fetcher:  NewFetcher(backend, cfg.Fetch, logger.Named("fetcher")),
		tagger:   tagger,
		history:  history,
		logger:   logger,
	}
}

// ResolveLink normalizes a raw track link, looks up its metadata, and runs
// the full resolution.
func (r *Resolver) ResolveLink(ctx context.Context, rawURL string) (*FetchResult, error) {
	trackID, err := r.provider.ExtractTrackID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedLink, err)
	}

	meta, err := r.provider.LookupTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}

	return r.Resolve(ctx, meta)
}

// Resolve runs the pipeline for already-known metadata and returns either a
// retrieved audio artifact or a terminal failure. Only ErrInvalidMetadata,
// ErrNoCandidates, and ExhaustedError cross this boundary.
func (r *Resolver) Resolve(ctx context.Context, meta *TrackMetadata) (*FetchResult, error) {
	start := time.Now()

	result, err := r.resolve(ctx, meta)
	r.record(ctx, meta, result, err)

	if err != nil {
		r.logger.Info("Resolution failed",
			zap.String("title", meta.Title),
			zap.String("artist", meta.Artist),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("Resolution completed",
		zap.String("title", meta.Title),
		zap.String("artist", meta.Artist),
		zap.String("path", result.Artifact.Path),
		zap.Int("attempts", result.Attempts),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (r *Resolver) resolve(ctx context.Context, meta *TrackMetadata) (*FetchResult, error) {
	exprs, err := r.builder.BuildQueries(meta)
	if err != nil {
		return nil, err
	}

	aggregate, diagnostics := r.prober.ProbeAll(ctx, exprs)
	for _, diag := range diagnostics {
		if diag.Err != nil {
			r.logger.Warn("Search expression skipped",
				zap.String("backend", diag.Expression.Backend),
				zap.String("query", diag.Expression.Query),
				zap.Error(diag.Err))
		}
	}

	if len(aggregate) == 0 {
		return nil, fmt.Errorf("%w: %d expressions probed", ErrNoCandidates, len(exprs))
	}

	ranked := Rank(aggregate, meta.DurationSecs)

	scratchRoot := filepath.Join(r.cfg.App.WorkDir, "scratch")
	result, err := r.fetcher.FetchBestEffort(ctx, ranked, scratchRoot)
	if err != nil {
		return nil, err
	}

	r.finalize(ctx, meta, result)
	return result, nil
}

// finalize tags the fetched file and moves it from its scratch directory
// into the library. Both steps are best-effort: a tagging or move failure
// leaves the artifact where it is rather than discarding a completed fetch.
func (r *Resolver) finalize(ctx context.Context, meta *TrackMetadata, result *FetchResult) {
	if r.tagger != nil {
		if err := r.tagger.Apply(ctx, result.Artifact.Path, meta); err != nil {
			r.logger.Warn("Failed to tag artifact",
				zap.String("path", result.Artifact.Path),
				zap.Error(err))
		}
	}

	if r.cfg.App.LibraryDir == "" {
		return
	}

	libraryPath := filepath.Join(r.cfg.App.LibraryDir, libraryFileName(meta, r.cfg.Fetch.AudioFormat))
	if err := moveFile(result.Artifact.Path, libraryPath); err != nil {
		r.logger.Warn("Failed to move artifact into library",
			zap.String("from", result.Artifact.Path),
			zap.String("to", libraryPath),
			zap.Error(err))
		return
	}

	// Drop the now-empty scratch directory.
	if err := os.Remove(filepath.Dir(result.Artifact.Path)); err != nil && !os.IsNotExist(err) {
		r.logger.Debug("Scratch directory not removed", zap.Error(err))
	}

	result.Artifact.Path = libraryPath
}

func (r *Resolver) record(ctx context.Context, meta *TrackMetadata, result *FetchResult, err error) {
	if r.history == nil {
		return
	}

	entry := HistoryEntry{
		TrackID:   meta.ID,
		Title:     meta.Title,
		Artist:    meta.Artist,
		CreatedAt: time.Now().Unix(),
	}

	switch {
	case err == nil:
		entry.Status = StatusCompleted
		entry.ArtifactPath = result.Artifact.Path
		entry.Attempts = result.Attempts
	case FailureKind(err) == "no_candidates":
		entry.Status = StatusNoCandidates
		entry.FailureKind = FailureKind(err)
	case FailureKind(err) == "exhausted":
		entry.Status = StatusExhausted
		entry.FailureKind = FailureKind(err)
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) {
			entry.Attempts = exhausted.Attempts
		}
	default:
		entry.Status = StatusFailed
		entry.FailureKind = FailureKind(err)
	}

	if recordErr := r.history.Record(ctx, entry); recordErr != nil {
		r.logger.Warn("Failed to record resolution history", zap.Error(recordErr))
	}
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N} ._-]+`)

func libraryFileName(meta *TrackMetadata, format string) string {
	base := strings.TrimSpace(fmt.Sprintf("%s - %s", meta.Artist, meta.Title))
	base = unsafeFileChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	if base == "" || base == "-" {
		base = meta.ID
	}
	return base + "." + format
}

// moveFile renames when possible and falls back to copy+remove for
// cross-device moves.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
