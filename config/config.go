// Package config holds the tunable parameters shared by the STFT, peak
// picker, and landmark hasher stages of the fingerprint pipeline.
package config

// Parameters controls every tunable named in the fingerprint pipeline.
// Zero value is not meaningful; use Defaults() as a starting point.
type Parameters struct {
	WindowLengthSec float64 // STFT window duration; hop = window (no overlap)
	KernelSize      int     // side of the 2-D max filter, in cells
	MagThreshold    float32 // peaks must have S[p] > threshold

	TargetZoneDelaySec float64 // target-zone start offset from anchor
	TargetZoneHeightHz float64 // full frequency span of target zone
	TargetZoneWidthSec float64 // target-zone temporal extent beyond the delay

	// MinDelaySec enables the stricter lower bound on target-zone delay
	// that the original source declares in comments but never enforces.
	// Defaults to 0 (disabled) to preserve the as-specified behavior;
	// see DESIGN.md "Open Question decisions" #1.
	MinDelaySec float64
}

// Defaults returns the parameter set matching the original tool's
// command-line defaults.
func Defaults() Parameters {
	return Parameters{
		WindowLengthSec:    0.1,
		KernelSize:         30,
		MagThreshold:       0.0,
		TargetZoneDelaySec: 0.1,
		TargetZoneHeightHz: 750.0,
		TargetZoneWidthSec: 3.0,
		MinDelaySec:        0,
	}
}
