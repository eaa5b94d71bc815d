package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gupfee/greenhaus/internal/domain"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"domain error", domain.Errorf(domain.EDISCOUNT, "discount.resolve", "bad code"), domain.EDISCOUNT},
		{"wrapped domain error", fmt.Errorf("outer: %w", domain.Errorf(domain.ENOTFOUND, "op", "gone")), domain.ENOTFOUND},
		{"plain error", errors.New("boom"), domain.EINTERNAL},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.ErrorCode(tc.err); got != tc.want {
				t.Errorf("ErrorCode() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorMessage_MasksInternal(t *testing.T) {
	err := domain.Internal(errors.New("pq: connection refused"), "storage.save", "could not save")
	msg := domain.ErrorMessage(err)
	if msg != "An internal error occurred. Please try again later." {
		t.Errorf("internal details must be masked, got %q", msg)
	}

	if msg := domain.ErrorMessage(errors.New("raw")); msg != "An internal error occurred. Please try again later." {
		t.Errorf("non-domain errors must be masked, got %q", msg)
	}
}

func TestSentinelMatching(t *testing.T) {
	wrapped := domain.WrapError(domain.ErrInsufficientStock, domain.EINSUFFICIENTSTOCK, "cart.upsert",
		"requested quantity exceeds available stock")

	if !errors.Is(wrapped, domain.ErrInsufficientStock) {
		t.Error("wrapped sentinel should match with errors.Is")
	}
	if !domain.IsCode(wrapped, domain.EINSUFFICIENTSTOCK) {
		t.Error("wrapped sentinel should keep its code")
	}
	if errors.Is(wrapped, domain.ErrInvalidDiscount) {
		t.Error("different codes must not match")
	}
}

func TestWrapError_NilPassthrough(t *testing.T) {
	if err := domain.WrapError(nil, domain.EINTERNAL, "op", "msg"); err != nil {
		t.Errorf("wrapping nil should stay nil, got %v", err)
	}
}

func TestError_StringIncludesOp(t *testing.T) {
	err := domain.Errorf(domain.EINVALID, "cart.upsert", "bad snapshot")
	if got := err.Error(); got != "cart.upsert: bad snapshot" {
		t.Errorf("unexpected error string %q", got)
	}
}
