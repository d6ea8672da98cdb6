// Package spotify provides the Spotify Web API metadata provider and track
// link normalization.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"tracksnag/internal/core"
)

// Client looks up track metadata through the Spotify Web API using the
// client-credentials flow. It holds no user session; the app token is
// refreshed transparently by the oauth2 transport.
type Client struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	client *spotify.Client
}

func NewClient(config *core.SpotifyConfig, logger *zap.Logger) (*Client, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret are required")
	}

	creds := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	httpClient := creds.Client(context.Background())

	return &Client{
		config: config,
		logger: logger,
		client: spotify.New(httpClient),
	}, nil
}

// LookupTrack fetches a single track's metadata by Spotify track ID.
func (c *Client) LookupTrack(ctx context.Context, trackID string) (*core.TrackMetadata, error) {
	track, err := c.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, c.classify(err)
	}

	meta := c.convertTrack(track)

	c.logger.Debug("Track metadata resolved",
		zap.String("trackID", trackID),
		zap.String("title", meta.Title),
		zap.String("artist", meta.Artist),
		zap.Int("durationSecs", meta.DurationSecs))

	return meta, nil
}

func (c *Client) convertTrack(track *spotify.FullTrack) *core.TrackMetadata {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	primary := ""
	if len(artists) > 0 {
		primary = artists[0]
	}

	coverURL := ""
	if len(track.Album.Images) > 0 {
		coverURL = track.Album.Images[0].URL
	}

	return &core.TrackMetadata{
		ID:           string(track.ID),
		Title:        track.Name,
		Artist:       primary,
		Artists:      artists,
		Album:        track.Album.Name,
		CoverURL:     coverURL,
		ReleaseDate:  track.Album.ReleaseDate,
		DurationSecs: track.Duration / 1000,
	}
}

// classify maps Spotify API failures onto the backend error taxonomy so the
// caller never sees a raw transport error.
func (c *Client) classify(err error) error {
	kind := core.KindExtraction

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			kind = core.KindNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = core.KindAccessDenied
		case http.StatusTooManyRequests:
			kind = core.KindRateLimited
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		kind = core.KindTimeout
	}

	return &core.BackendError{
		Backend: "spotify",
		Kind:    kind,
		Err:     err,
	}
}
