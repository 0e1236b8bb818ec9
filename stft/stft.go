// Package stft turns a decoded PCM sample buffer into a real-valued
// power-ish spectrogram: a sequence of forward DFTs over contiguous,
// non-overlapping windows (component C1 of the fingerprint pipeline).
package stft

import (
	"github.com/mjibson/go-dsp/fft"

	"landmarkfp/errs"
)

const stage = "stft"

// Spectrogram computes the short-time Fourier transform of samples at
// sampleRate using windows of windowLengthSec seconds (hop == window,
// no overlap, no taper). Each output row holds the real part of the
// forward DFT restricted to bins 0..windowSize/2 inclusive.
//
// Returned rows are indexed by window (time), columns by frequency bin;
// Δf = sampleRate / windowSize Hz per column.
func Spectrogram(samples []int16, sampleRate int, windowLengthSec float64) ([][]float32, error) {
	if sampleRate <= 0 {
		return nil, errs.Wrap(stage, errs.InputError, errInvalid("sample rate must be positive"))
	}

	windowSize := int(float64(sampleRate) * windowLengthSec)
	if windowSize <= 0 {
		return nil, errs.Wrap(stage, errs.ConfigError, errInvalid("window length produces a zero-length window"))
	}
	if windowSize > len(samples) {
		return nil, errs.Wrap(stage, errs.InputError, errInvalid("window size exceeds sample buffer length"))
	}

	hop := windowSize
	numWindows := (len(samples)-windowSize)/hop + 1
	numBins := windowSize/2 + 1

	spectrogram := make([][]float32, numWindows)

	// Each row depends only on its own window of samples and writes
	// exactly one output slot, so rows could be computed concurrently
	// without changing the result (§5 "STFT across rows"). The pipeline
	// as a whole already parallelizes across files (pipeline.AddPath),
	// so a single sequential pass here keeps this stage simple.
	for row := 0; row < numWindows; row++ {
		start := row * hop
		frame := make([]float64, windowSize)
		for i := 0; i < windowSize; i++ {
			frame[i] = float64(samples[start+i])
		}

		bins := fft.FFTReal(frame)

		out := make([]float32, numBins)
		for k := 0; k < numBins; k++ {
			out[k] = float32(real(bins[k]))
		}
		spectrogram[row] = out
	}

	return spectrogram, nil
}

type invalidInput string

func (e invalidInput) Error() string { return string(e) }

func errInvalid(msg string) error { return invalidInput(msg) }
