package peaks

import "testing"

func TestMaxFilterClampsAtEdges(t *testing.T) {
	spec := [][]float32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}

	filtered, err := MaxFilter(spec, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// kernel size 3 -> half=1: each cell's window is its 3x3
	// neighbourhood truncated at the grid edges, so corner (0,0) only
	// sees {1,2,4,5} while every window touching row 2 / col 2 sees 9.
	want := [][]float32{
		{5, 6, 6},
		{8, 9, 9},
		{8, 9, 9},
	}
	for r := range filtered {
		for c := range filtered[r] {
			if filtered[r][c] != want[r][c] {
				t.Errorf("filtered[%d][%d] = %v, want %v", r, c, filtered[r][c], want[r][c])
			}
		}
	}
}

func TestMaxFilterRejectsInvalidInput(t *testing.T) {
	if _, err := MaxFilter(nil, 3); err == nil {
		t.Fatal("expected error for empty spectrogram")
	}
	if _, err := MaxFilter([][]float32{{1}}, 0); err == nil {
		t.Fatal("expected error for zero kernel size")
	}
}

func TestFindLocatesPeaksAboveThreshold(t *testing.T) {
	spec := [][]float32{
		{1, 1, 1},
		{1, 9, 1},
		{1, 1, 1},
	}
	filtered, err := MaxFilter(spec, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Find(spec, filtered, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 || got[0] != (Peak{T: 1, K: 1}) {
		t.Fatalf("Find() = %+v, want single peak at (1,1)", got)
	}
}

func TestFindAppliesMagnitudeThreshold(t *testing.T) {
	spec := [][]float32{
		{1, 1},
		{1, 1},
	}
	filtered, err := MaxFilter(spec, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Find(spec, filtered, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Find() = %+v, want no peaks above threshold", got)
	}
}

func TestFindRejectsShapeMismatch(t *testing.T) {
	spec := [][]float32{{1, 2}}
	filtered := [][]float32{{1}}
	if _, err := Find(spec, filtered, 0); err == nil {
		t.Fatal("expected error for shape mismatch")
	}
}
