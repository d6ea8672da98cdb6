// Package tag writes track metadata into finished audio files as ID3v2
// frames, including the album cover when one is available.
package tag

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bogem/id3v2"
	"go.uber.org/zap"

	"tracksnag/internal/core"
)

const (
	coverFetchTimeout = 15 * time.Second
	maxCoverBytes     = 4 * 1024 * 1024
)

// Writer implements core.Tagger for MP3 files.
type Writer struct {
	logger     *zap.Logger
	httpClient *http.Client
}

func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{
		logger: logger,
		httpClient: &http.Client{
			Timeout: coverFetchTimeout,
		},
	}
}

// Apply writes title, artist, album and year frames, plus a front-cover
// picture frame when the cover can be fetched. A cover fetch failure is not
// an error; the remaining frames are still written.
func (w *Writer) Apply(ctx context.Context, path string, meta *core.TrackMetadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(3)
	tag.SetTitle(meta.Title)
	tag.SetArtist(artistFrame(meta))
	tag.SetAlbum(meta.Album)
	if year := releaseYear(meta.ReleaseDate); year != "" {
		tag.SetYear(year)
	}

	if meta.CoverURL != "" {
		if cover, err := w.fetchCover(ctx, meta.CoverURL); err != nil {
			w.logger.Warn("Cover fetch failed, tagging without artwork",
				zap.String("trackID", meta.ID),
				zap.Error(err))
		} else {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Picture:     cover,
			})
		}
	}

	return tag.Save()
}

func artistFrame(meta *core.TrackMetadata) string {
	if len(meta.Artists) > 1 {
		return strings.Join(meta.Artists, ", ")
	}
	return meta.Artist
}

func releaseYear(releaseDate string) string {
	if len(releaseDate) >= 4 {
		return releaseDate[:4]
	}
	return ""
}

func (w *Writer) fetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover fetch returned %s", resp.Status)
	}

	cover, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, err
	}
	return cover, nil
}
