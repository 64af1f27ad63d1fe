package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeConflict, http.StatusConflict, false},
		{CodeCapacityExceeded, http.StatusBadRequest, false},
		{CodeSignature, http.StatusBadRequest, false},
		{CodeInternal, http.StatusInternalServerError, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}
	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Fatalf("%s: unexpected retryable flag", tc.code)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("low level")
	err := Wrap(CodeDependency, cause, "provider call failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	typed := As(err)
	if typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("expected typed dependency error, got %v", err)
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeCapacityExceeded, "retreat is full").WithDetails(map[string]any{"max": 10})
	wrapped := Wrap(CodeInternal, inner, "create booking")

	// the outermost code wins; As returns the first typed error in the chain
	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeInternal {
		t.Fatalf("expected outer internal error, got %v", typed)
	}
}
