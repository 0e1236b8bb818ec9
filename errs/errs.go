// Package errs defines the error kinds used across the fingerprint
// pipeline (spec §7) and a small helper for stage-annotated wrapping.
package errs

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// Kind sentinels. Use errors.Is(err, errs.InputError) etc. to classify
// an error returned from any pipeline stage.
var (
	InputError  = errors.New("input error")
	ConfigError = errors.New("config error")
	ShapeError  = errors.New("shape error")
	StoreError  = errors.New("store error")
)

// Wrap annotates cause with the failing stage name and kind, then
// attaches a stack trace via go-xerrors so the outermost logger can
// report where the failure originated without re-deriving it.
func Wrap(stage string, kind error, cause error) error {
	if cause == nil {
		return nil
	}
	annotated := fmt.Errorf("%s: %w: %w", stage, kind, cause)
	return xerrors.New(annotated)
}
