// Package ytdlp implements the media-fetch backend on top of the yt-dlp
// command line tool. It supports a probe mode that resolves search
// expressions to structured metadata without moving bytes, and a fetch mode
// that downloads and transcodes a single item.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tracksnag/internal/core"
)

// Backend shells out to yt-dlp. One instance is safe for concurrent use;
// every invocation is a fresh process.
type Backend struct {
	cfg    core.FetchConfig
	logger *zap.Logger
}

func New(cfg core.FetchConfig, logger *zap.Logger) *Backend {
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "mp3"
	}
	return &Backend{
		cfg:    cfg,
		logger: logger,
	}
}

// searchEntry is the subset of yt-dlp's per-entry JSON we care about.
type searchEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Duration   *float64 `json:"duration"`
	Channel    string   `json:"channel"`
	Uploader   string   `json:"uploader"`
	URL        string   `json:"url"`
	WebpageURL string   `json:"webpage_url"`
}

// searchTarget maps a backend identifier to the yt-dlp argument that runs
// the search.
func searchTarget(expr core.SearchExpression) (string, error) {
	limit := expr.Limit
	if limit < 1 {
		limit = 1
	}

	switch expr.Backend {
	case core.BackendYouTube:
		return fmt.Sprintf("ytsearch%d:%s", limit, expr.Query), nil
	case core.BackendYTMusic:
		return "https://music.youtube.com/search?q=" + url.QueryEscape(expr.Query), nil
	case core.BackendSoundCloud:
		return fmt.Sprintf("scsearch%d:%s", limit, expr.Query), nil
	default:
		return "", fmt.Errorf("unknown search backend %q", expr.Backend)
	}
}

// Search runs a probe: search results are resolved to entry metadata only,
// one JSON object per line, no media bytes are transferred.
func (b *Backend) Search(ctx context.Context, expr core.SearchExpression) ([]core.CandidateEntry, error) {
	target, err := searchTarget(expr)
	if err != nil {
		return nil, &core.BackendError{Backend: expr.Backend, Kind: core.KindExtraction, Err: err}
	}

	args := []string{
		"--dump-json",
		"--flat-playlist",
		"--no-download",
		"--ignore-errors",
		target,
	}

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	entries := b.parseEntries(expr, &stdout)

	// yt-dlp exits nonzero when any entry fails even with --ignore-errors;
	// a partial result set still counts.
	if runErr != nil && len(entries) == 0 {
		return nil, classify(expr.Backend, runErr, ctx.Err(), stderr.String())
	}

	b.logger.Debug("Probe finished",
		zap.String("backend", expr.Backend),
		zap.String("query", expr.Query),
		zap.Int("entries", len(entries)))

	return entries, nil
}

func (b *Backend) parseEntries(expr core.SearchExpression, stdout *bytes.Buffer) []core.CandidateEntry {
	var entries []core.CandidateEntry

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw searchEntry
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			b.logger.Debug("Skipping malformed probe entry",
				zap.String("backend", expr.Backend),
				zap.Error(err))
			continue
		}

		if len(entries) >= expr.Limit && expr.Limit > 0 {
			break
		}

		entries = append(entries, toCandidate(raw))
	}

	return entries
}

func toCandidate(raw searchEntry) core.CandidateEntry {
	locator := raw.WebpageURL
	if locator == "" {
		locator = raw.URL
	}
	if locator == "" {
		locator = raw.ID
	}

	duration := 0
	if raw.Duration != nil {
		duration = int(*raw.Duration)
	}

	channel := raw.Channel
	if channel == "" {
		channel = raw.Uploader
	}

	return core.CandidateEntry{
		Locator:      locator,
		Title:        raw.Title,
		DurationSecs: duration,
		Channel:      channel,
	}
}

// Fetch downloads one item and transcodes it into outputPath. The printed
// title and duration describe what was actually fetched, which may differ
// from the probe entry.
func (b *Backend) Fetch(ctx context.Context, locator, outputPath string) (*core.FetchArtifact, error) {
	args := []string{
		"--extract-audio",
		"--audio-format", b.cfg.AudioFormat,
		"--format", "bestaudio/best",
		"--no-playlist",
		"--no-simulate",
		"--print", "title",
		"--print", "duration",
		"--output", outputPath,
		locator,
	}

	if b.cfg.CookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", b.cfg.CookiesBrowser)
	}

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classify("ytdlp", err, ctx.Err(), stderr.String())
	}

	title, duration := parsePrinted(stdout.String())

	b.logger.Debug("Fetch finished",
		zap.String("locator", locator),
		zap.String("path", outputPath),
		zap.String("title", title),
		zap.Int("durationSecs", duration))

	return &core.FetchArtifact{
		Path:         outputPath,
		Title:        title,
		DurationSecs: duration,
	}, nil
}

// parsePrinted reads the two --print lines: title, then duration in seconds.
func parsePrinted(output string) (string, int) {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	title := ""
	duration := 0

	if len(lines) > 0 {
		title = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		raw := strings.TrimSpace(lines[1])
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			duration = int(parsed)
		}
	}

	if title == "NA" {
		title = ""
	}

	return title, duration
}
