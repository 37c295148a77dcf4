package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("ttl %d out of range", 5), KindValidation},
		{"not found", NotFound("domain %d not found", 7), KindNotFound},
		{"conflict", Conflict("account in use"), KindConflict},
		{"upstream", Upstream(cause, "list zones"), KindUpstream},
		{"wrapped", fmt.Errorf("create domain: %w", Validation("zone required")), KindValidation},
		{"plain", cause, KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("throttled")
	err := Upstream(cause, "list hosted zones")
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	if err.Error() != "list hosted zones: throttled" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
