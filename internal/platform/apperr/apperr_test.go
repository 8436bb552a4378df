package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrValidation, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFoundf("diagnosis %s", "abc"))
	if got := Status(err); got != http.StatusNotFound {
		t.Errorf("expected 404 through wrapping, got %d", got)
	}
}

func TestToHTTP_MasksInternal(t *testing.T) {
	he := ToHTTP(errors.New("pq: connection refused"))
	if he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", he.Code)
	}
	if he.Message != "internal server error" {
		t.Errorf("internal detail must be masked, got %v", he.Message)
	}
}

func TestToHTTP_KeepsDomainMessage(t *testing.T) {
	he := ToHTTP(Conflictf("email already registered"))
	if he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", he.Code)
	}
	if he.Message == "internal server error" {
		t.Error("domain message should be preserved")
	}
}
