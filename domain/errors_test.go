package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError("no paths"),
			want: "[INVALID_INPUT] no paths",
		},
		{
			name: "with cause",
			err:  NewParseError("a.yaml", errors.New("bad indent")),
			want: "[PARSE_ERROR] failed to decode method file: a.yaml: bad indent",
		},
		{
			name: "unsupported format",
			err:  NewUnsupportedFormatError("html"),
			want: "[UNSUPPORTED_FORMAT] unsupported format: html",
		},
		{
			name: "structuring",
			err:  NewStructuringError(ErrCodeIllegalEdgeTopology, "Foo.bar", errors.New("jump to 99")),
			want: "[ILLEGAL_EDGE_TOPOLOGY] failed to structure Foo.bar: jump to 99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewOutputError("failed to write output", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("structure: %w", NewStructuringError(ErrCodeStructuralInconsistency, "m", nil))

	code, ok := ErrorCode(wrapped)
	if !ok || code != ErrCodeStructuralInconsistency {
		t.Errorf("ErrorCode() = %q, %v", code, ok)
	}

	if _, ok := ErrorCode(errors.New("plain")); ok {
		t.Error("expected no code for a plain error")
	}
}
