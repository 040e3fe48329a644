package client

import (
	"errors"
	"testing"
)

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"payload message", &APIError{StatusCode: 409, Message: "Username already exists"}, "Username already exists"},
		{"no payload", &APIError{StatusCode: 502}, "request failed with status 502"},
		{"unreachable", &UnreachableError{Err: errors.New("dial tcp: refused")}, UnreachableMessage},
		{"plain error", errors.New("boom"), "boom"},
		{"empty error", emptyError{}, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
