package pipeline

import (
	"math"
	"testing"

	"landmarkfp/config"
	"landmarkfp/match"
	"landmarkfp/store/sqlitestore"
)

// syntheticSamples builds a buffer from a couple of pure tones, giving
// the stft/peaks stages stable, repeatable peaks without needing a real
// audio file on disk.
func syntheticSamples(sampleRate int, seconds float64) []int16 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		v := math.Sin(2*math.Pi*440*t) + 0.5*math.Sin(2*math.Pi*880*t)
		samples[i] = int16(v * 10000)
	}
	return samples
}

func TestFingerprintThenScoreFindsSelfMatch(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	pl := New(db, config.Defaults())

	samples := syntheticSamples(44100, 2.0)

	records, err := pl.Fingerprint(samples, 44100)
	if err != nil {
		t.Fatalf("fingerprinting: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected at least one fingerprint from a synthetic tone")
	}

	trackID, err := db.AddTrack("synthetic tone")
	if err != nil {
		t.Fatalf("adding track: %v", err)
	}
	if err := db.ReplaceFingerprints(trackID, records); err != nil {
		t.Fatalf("storing fingerprints: %v", err)
	}

	candidates, err := match.Score(records, db)
	if err != nil {
		t.Fatalf("scoring: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected the full clip to match itself")
	}
	if candidates[0].Title != "synthetic tone" {
		t.Fatalf("top candidate = %q, want %q", candidates[0].Title, "synthetic tone")
	}
	if candidates[0].BestOffset != 0 {
		t.Fatalf("self-match offset = %d, want 0", candidates[0].BestOffset)
	}
}
