package core

import (
	"errors"
	"fmt"
)

// Errors that cross the resolver boundary. Everything else is caught and
// classified at its own layer.
var (
	ErrInvalidMetadata = errors.New("invalid track metadata")
	ErrUnsupportedLink = errors.New("unsupported track link")
	ErrNoCandidates    = errors.New("no usable candidates found")
)

// BackendErrorKind classifies a single probe or fetch call's failure.
type BackendErrorKind string

const (
	KindAccessDenied BackendErrorKind = "access_denied"
	KindRateLimited  BackendErrorKind = "rate_limited"
	KindNotFound     BackendErrorKind = "not_found"
	KindTimeout      BackendErrorKind = "timeout"
	KindExtraction   BackendErrorKind = "extraction"
)

// BackendError wraps a transport/protocol failure from the metadata provider
// or the media backend. It never propagates raw past the resolver.
type BackendError struct {
	Backend string
	Kind    BackendErrorKind
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that candidates existed but every fetch attempt was
// recoverably rejected. LastCause carries the final attempt's failure for
// diagnostics.
type ExhaustedError struct {
	Attempts  int
	LastCause error
}

func (e *ExhaustedError) Error() string {
	if e.LastCause == nil {
		return "no candidates to fetch"
	}
	return fmt.Sprintf("all %d fetch attempts failed, last cause: %v", e.Attempts, e.LastCause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastCause
}

// FailureKind maps an error onto the history ledger's failure vocabulary.
func FailureKind(err error) string {
	var (
		be *BackendError
		ee *ExhaustedError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidMetadata):
		return "invalid_metadata"
	case errors.Is(err, ErrUnsupportedLink):
		return "unsupported_link"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.As(err, &ee):
		return "exhausted"
	case errors.As(err, &be):
		return string(be.Kind)
	default:
		return "internal"
	}
}
