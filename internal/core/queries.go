package core

import (
	"fmt"
	"strings"

	"tracksnag/pkg/fuzzy"
)

// Backend identifiers understood by the media backend.
const (
	BackendYouTube    = "youtube"
	BackendYTMusic    = "ytmusic"
	BackendSoundCloud = "soundcloud"
)

// QueryBuilder turns track metadata into an ordered list of backend-bound
// search expressions. Order is only the aggregation-order tiebreak; ranking
// happens after probing.
type QueryBuilder struct {
	normalizer      *fuzzy.Normalizer
	resultsPerQuery int
}

func NewQueryBuilder(resultsPerQuery int) *QueryBuilder {
	if resultsPerQuery < 1 {
		resultsPerQuery = 1
	}
	return &QueryBuilder{
		normalizer:      fuzzy.NewNormalizer(),
		resultsPerQuery: resultsPerQuery,
	}
}

// BuildQueries produces multiple phrasings across multiple backends to
// maximize recall. Fails with ErrInvalidMetadata when both title and primary
// artist are empty. No network I/O happens here.
func (b *QueryBuilder) BuildQueries(meta *TrackMetadata) ([]SearchExpression, error) {
	title := strings.TrimSpace(meta.Title)
	artist := strings.TrimSpace(meta.Artist)

	if title == "" && artist == "" {
		return nil, fmt.Errorf("%w: title and artist are both empty", ErrInvalidMetadata)
	}

	cleanTitle := b.normalizer.NormalizeTitle(title)
	if cleanTitle == "" {
		cleanTitle = title
	}
	cleanArtist := b.normalizer.NormalizeArtist(artist)
	if cleanArtist == "" {
		cleanArtist = artist
	}

	var exprs []SearchExpression
	add := func(backend, query string) {
		exprs = append(exprs, SearchExpression{
			Backend: backend,
			Query:   query,
			Limit:   b.resultsPerQuery,
		})
	}

	switch {
	case cleanArtist != "" && cleanTitle != "":
		add(BackendYouTube, fmt.Sprintf("%s - %s", cleanArtist, cleanTitle))
		add(BackendYouTube, fmt.Sprintf("%s - %s official audio", cleanArtist, cleanTitle))
		add(BackendYTMusic, fmt.Sprintf("%s - %s", cleanArtist, cleanTitle))
		add(BackendYouTube, fmt.Sprintf("%s %s", cleanTitle, cleanArtist))
		add(BackendSoundCloud, fmt.Sprintf("%s %s", cleanArtist, cleanTitle))
	case cleanTitle != "":
		add(BackendYouTube, cleanTitle)
		add(BackendYTMusic, cleanTitle)
	default:
		add(BackendYouTube, cleanArtist)
		add(BackendYTMusic, cleanArtist)
	}

	return exprs, nil
}
