package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpersUnwrap(t *testing.T) {
	base := errors.New("dial tcp: refused")
	wrapped := fmt.Errorf("send: %w", UnavailableError{Service: "whatsapp", Err: base})

	if !IsUnavailable(wrapped) {
		t.Fatalf("expected wrapped UnavailableError to be detected")
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if IsNotFound(wrapped) || IsValidation(wrapped) {
		t.Fatalf("unexpected classification for %v", wrapped)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NotFoundError{Resource: "booking"}, "booking not found"},
		{ValidationError{Field: "slot_id", Msg: "is required"}, "slot_id: is required"},
		{ValidationError{Msg: "Invalid lock_token"}, "Invalid lock_token"},
		{ConflictError{Msg: "A lead with this email already exists."}, "A lead with this email already exists."},
		{UnauthorizedError{}, "unauthorized"},
		{UnavailableError{Service: "llm"}, "llm unavailable"},
		{InternalError{Err: errors.New("boom")}, "internal error"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("%T: got %q want %q", tc.err, got, tc.want)
		}
	}
	if !IsUnauthorized(UnauthorizedError{Msg: "token expired"}) {
		t.Fatalf("IsUnauthorized should match")
	}
}
