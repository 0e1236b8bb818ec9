// Package peaks picks a constellation of time-frequency local maxima
// out of a spectrogram via a 2-D max filter plus magnitude threshold
// (component C2 of the fingerprint pipeline).
package peaks

import (
	"landmarkfp/errs"
)

const stage = "peaks"

// Peak is a local maximum at spectrogram row t (time) and column k
// (frequency bin).
type Peak struct {
	T int
	K int
}

// MaxFilter computes, for every cell of spec, the maximum over a
// kernelSize x kernelSize window centered on that cell, clamped at the
// array edges (never reflected). Division for the half-window extent is
// integer, matching the original source exactly.
func MaxFilter(spec [][]float32, kernelSize int) ([][]float32, error) {
	if kernelSize == 0 {
		return nil, errs.Wrap(stage, errs.ConfigError, errInvalid("kernel_size must be >= 1"))
	}
	if len(spec) == 0 || len(spec[0]) == 0 {
		return nil, errs.Wrap(stage, errs.ShapeError, errInvalid("spectrogram is empty"))
	}

	rows := len(spec)
	cols := len(spec[0])
	half := kernelSize / 2

	out := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]float32, cols)

		rMin, rMax := clampRange(r, half, rows)
		for c := 0; c < cols; c++ {
			cMin, cMax := clampRange(c, half, cols)

			max := spec[rMin][cMin]
			for rr := rMin; rr <= rMax; rr++ {
				row := spec[rr]
				for cc := cMin; cc <= cMax; cc++ {
					if row[cc] > max {
						max = row[cc]
					}
				}
			}
			out[r][c] = max
		}
	}

	return out, nil
}

func clampRange(idx, half, length int) (int, int) {
	min := idx - half
	if min < 0 {
		min = 0
	}
	max := idx + half
	if max > length-1 {
		max = length - 1
	}
	return min, max
}

// Find returns every cell of spec that equals its max-filtered value
// (exact bitwise float equality - achievable without tolerance since
// filtered is assembled purely from spec's own values) and whose
// magnitude exceeds magThreshold. Output is in row-major order.
func Find(spec, filtered [][]float32, magThreshold float32) ([]Peak, error) {
	if kernelErr := checkShapes(spec, filtered); kernelErr != nil {
		return nil, errs.Wrap(stage, errs.ShapeError, kernelErr)
	}

	var out []Peak
	for t, row := range spec {
		for k, v := range row {
			if v == filtered[t][k] && v > magThreshold {
				out = append(out, Peak{T: t, K: k})
			}
		}
	}

	return out, nil
}

func checkShapes(a, b [][]float32) error {
	if len(a) == 0 {
		return errInvalid("spectrogram is empty")
	}
	if len(a) != len(b) {
		return errInvalid("spectrogram and filtered array row counts differ")
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return errInvalid("spectrogram and filtered array column counts differ")
		}
	}
	return nil
}

type invalidInput string

func (e invalidInput) Error() string { return string(e) }

func errInvalid(msg string) error { return invalidInput(msg) }
