// Package landmark enumerates peak pairs inside each anchor's target
// zone and hashes them into 32-bit fingerprints (component C3 of the
// fingerprint pipeline).
package landmark

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"landmarkfp/config"
	"landmarkfp/errs"
	"landmarkfp/peaks"
)

const stage = "landmark"

// PairRecord is a fingerprint row: a 32-bit hash of (freq_a, freq_b,
// delta_t) alongside the anchor time it was computed at. The anchor
// time travels with the hash but is not part of it.
type PairRecord struct {
	Hash  uint32
	TimeA uint32
}

// Hash enumerates every (anchor, target) peak pair inside anchor's
// target zone and returns a mapping from 32-bit hash to PairRecord. If
// two distinct pairs within this call hash to the same value, the later
// one wins (plain map assignment already gives this for free).
//
// peaksSeq must be orderable by ascending time for the enumeration's
// early-termination to be correct; Hash sorts a copy defensively rather
// than trust the caller.
func Hash(peaksSeq []peaks.Peak, p config.Parameters) (map[uint32]PairRecord, error) {
	if err := validate(p); err != nil {
		return nil, errs.Wrap(stage, errs.ConfigError, err)
	}

	ordered := make([]peaks.Peak, len(peaksSeq))
	copy(ordered, peaksSeq)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].T != ordered[j].T {
			return ordered[i].T < ordered[j].T
		}
		return ordered[i].K < ordered[j].K
	})

	wl := p.WindowLengthSec
	deltaF := 1.0 / wl
	maxDelta := int(math.Floor((p.TargetZoneDelaySec + p.TargetZoneWidthSec) / wl))
	maxFreqSpan := int(math.Floor((p.TargetZoneHeightHz / deltaF) / 2))

	var minDelta int
	if p.MinDelaySec > 0 {
		minDelta = int(math.Floor(p.MinDelaySec / wl))
	}

	out := make(map[uint32]PairRecord)

	for i, anchor := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			target := ordered[j]

			dt := target.T - anchor.T
			if dt > maxDelta {
				break // peaks are time-sorted: no later j can satisfy the bound either
			}
			if dt <= 0 {
				continue // b.t > a.t is required; ties on T sort by K and aren't pairs
			}
			if dt < minDelta {
				continue
			}

			freqDiff := target.K - anchor.K
			if freqDiff < 0 {
				freqDiff = -freqDiff
			}
			if freqDiff >= maxFreqSpan {
				continue
			}

			h := hashTriple(uint32(anchor.K), uint32(target.K), uint32(dt))
			out[h] = PairRecord{Hash: h, TimeA: uint32(anchor.T)}
		}
	}

	return out, nil
}

func hashTriple(freqA, freqB, deltaT uint32) uint32 {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], freqA)
	binary.BigEndian.PutUint32(buf[4:8], freqB)
	binary.BigEndian.PutUint32(buf[8:12], deltaT)

	h := fnv.New32a()
	_, _ = h.Write(buf[:])
	return h.Sum32()
}

func validate(p config.Parameters) error {
	for _, v := range []float64{p.TargetZoneDelaySec, p.TargetZoneHeightHz, p.TargetZoneWidthSec, p.WindowLengthSec} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return invalidInput("target zone parameters must be finite and non-negative")
		}
	}
	if p.WindowLengthSec == 0 {
		return invalidInput("window_length_sec must be positive")
	}
	return nil
}

type invalidInput string

func (e invalidInput) Error() string { return string(e) }
