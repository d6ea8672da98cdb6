package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"tracksnag/internal/core"
)

// CachedProvider wraps a metadata provider with a bounded LRU cache keyed by
// track ID. Only successful lookups are cached; failures always retry the
// underlying provider.
type CachedProvider struct {
	provider core.MetadataProvider
	cache    *lru.Cache[string, *core.TrackMetadata]
	logger   *zap.Logger
}

func NewCachedProvider(provider core.MetadataProvider, size int, logger *zap.Logger) (*CachedProvider, error) {
	if size < 1 {
		size = 128
	}
	cache, err := lru.New[string, *core.TrackMetadata](size)
	if err != nil {
		return nil, err
	}

	return &CachedProvider{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}, nil
}

func (c *CachedProvider) LookupTrack(ctx context.Context, trackID string) (*core.TrackMetadata, error) {
	if meta, ok := c.cache.Get(trackID); ok {
		c.logger.Debug("Metadata cache hit", zap.String("trackID", trackID))
		return meta, nil
	}

	meta, err := c.provider.LookupTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(trackID, meta)
	return meta, nil
}

func (c *CachedProvider) ExtractTrackID(rawURL string) (string, error) {
	return c.provider.ExtractTrackID(rawURL)
}

// Len reports the number of cached tracks.
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}
