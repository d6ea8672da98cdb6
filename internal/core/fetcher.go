package core

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher walks a ranked candidate list and attempts a real fetch+transcode
// per candidate, strictly in order. The first success wins; every
// per-candidate failure is recoverable so one bad source never blocks the
// rest.
type Fetcher struct {
	backend MediaBackend
	cfg     FetchConfig
	logger  *zap.Logger
}

func NewFetcher(backend MediaBackend, cfg FetchConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
	}
}

// FetchBestEffort tries each candidate in ranked order, writing into a
// fresh, uniquely named scratch directory under outputDir per attempt. On
// success the remaining candidates are never touched. When every candidate
// fails (or the list is empty) it returns an ExhaustedError carrying the
// last underlying cause; failed attempts' scratch directories are removed
// before moving on.
func (f *Fetcher) FetchBestEffort(ctx context.Context, ranked []ScoredCandidate, outputDir string) (*FetchResult, error) {
	var lastCause error

	for i, candidate := range ranked {
		scratchDir := filepath.Join(outputDir, uuid.New().String())
		if err := os.MkdirAll(scratchDir, 0o755); err != nil {
			lastCause = err
			continue
		}

		outputPath := filepath.Join(scratchDir, "audio."+f.cfg.AudioFormat)

		artifact, err := f.fetchOne(ctx, candidate.Locator, outputPath)
		if err != nil {
			lastCause = err
			f.logger.Debug("Fetch attempt failed, trying next candidate",
				zap.Int("attempt", i+1),
				zap.String("locator", candidate.Locator),
				zap.Error(err))
			if rmErr := os.RemoveAll(scratchDir); rmErr != nil {
				f.logger.Warn("Failed to clean up scratch directory",
					zap.String("dir", scratchDir),
					zap.Error(rmErr))
			}
			continue
		}

		f.logger.Info("Fetch succeeded",
			zap.Int("attempt", i+1),
			zap.String("locator", candidate.Locator),
			zap.String("path", artifact.Path))

		return &FetchResult{
			Artifact: artifact,
			Locator:  candidate.Locator,
			Attempts: i + 1,
		}, nil
	}

	return nil, &ExhaustedError{Attempts: len(ranked), LastCause: lastCause}
}

func (f *Fetcher) fetchOne(ctx context.Context, locator, outputPath string) (*FetchArtifact, error) {
	fetchCtx := ctx
	if f.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.cfg.FetchTimeout)
		defer cancel()
	}

	return f.backend.Fetch(fetchCtx, locator, outputPath)
}
