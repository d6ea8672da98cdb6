package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailureKind(t *testing.T) {
	backendErr := &BackendError{
		Backend: "ytdlp",
		Kind:    KindAccessDenied,
		Err:     errors.New("HTTP Error 403"),
	}

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"invalid metadata", fmt.Errorf("%w: empty title and artist", ErrInvalidMetadata), "invalid_metadata"},
		{"unsupported link", fmt.Errorf("%w: not a track link", ErrUnsupportedLink), "unsupported_link"},
		{"no candidates", fmt.Errorf("%w: 5 expressions probed", ErrNoCandidates), "no_candidates"},
		{"backend error", backendErr, "access_denied"},
		{"exhausted wrapping a backend error", &ExhaustedError{Attempts: 3, LastCause: backendErr}, "exhausted"},
		{"anything else", errors.New("disk full"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := FailureKind(tt.err); kind != tt.expected {
				t.Errorf("FailureKind() = %q, expected %q", kind, tt.expected)
			}
		})
	}
}

func TestExhaustedError_Unwrap(t *testing.T) {
	cause := &BackendError{Backend: "ytdlp", Kind: KindRateLimited, Err: errors.New("429")}
	err := &ExhaustedError{Attempts: 2, LastCause: cause}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatal("expected the last cause to be reachable through Unwrap")
	}
	if backendErr.Kind != KindRateLimited {
		t.Errorf("kind = %q", backendErr.Kind)
	}
}
