package ytdlp

import (
	"context"
	"errors"
	"strings"

	"tracksnag/internal/core"
)

// stderr fragments that identify recoverable failure classes. yt-dlp has no
// machine-readable error channel, so classification is substring matching on
// its diagnostics.
var (
	accessDeniedMarkers = []string{
		"http error 403",
		"access denied",
		"sign in to confirm",
		"confirm you're not a bot",
		"captcha",
		"account cookies are no longer valid",
	}
	rateLimitedMarkers = []string{
		"http error 429",
		"too many requests",
		"rate-limit",
		"rate limit",
	}
	notFoundMarkers = []string{
		"http error 404",
		"video unavailable",
		"this video is not available",
		"no video results",
	}
)

// classify maps a yt-dlp process failure onto the backend error taxonomy.
// ctxErr takes precedence: a killed process after a deadline is a timeout,
// whatever it wrote to stderr.
func classify(backend string, runErr, ctxErr error, stderr string) error {
	kind := core.KindExtraction

	switch {
	case ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded):
		kind = core.KindTimeout
	case matchesAny(stderr, accessDeniedMarkers):
		kind = core.KindAccessDenied
	case matchesAny(stderr, rateLimitedMarkers):
		kind = core.KindRateLimited
	case matchesAny(stderr, notFoundMarkers):
		kind = core.KindNotFound
	}

	err := runErr
	if line := firstErrorLine(stderr); line != "" {
		err = errors.New(line)
	}

	return &core.BackendError{
		Backend: backend,
		Kind:    kind,
		Err:     err,
	}
}

func matchesAny(stderr string, markers []string) bool {
	lowered := strings.ToLower(stderr)
	for _, marker := range markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// firstErrorLine extracts the first ERROR: line so callers see one classified
// diagnostic instead of the full stderr dump.
func firstErrorLine(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	return ""
}
