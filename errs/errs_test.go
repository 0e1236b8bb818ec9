package errs

import (
	"errors"
	"testing"
)

func TestWrapPreservesKindForErrorsIs(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap("stft", InputError, cause)

	if !errors.Is(err, InputError) {
		t.Fatalf("Wrap() does not preserve InputError in the chain: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("Wrap() does not preserve the original cause in the chain: %v", err)
	}
}

func TestWrapNilCauseReturnsNil(t *testing.T) {
	if err := Wrap("stft", InputError, nil); err != nil {
		t.Fatalf("Wrap(stage, kind, nil) = %v, want nil", err)
	}
}
