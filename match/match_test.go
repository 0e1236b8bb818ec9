package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landmarkfp/landmark"
	"landmarkfp/store"
)

// fakeStore is an in-memory store.Store double, exercising the
// interface abstraction's reason for existing (spec §9).
type fakeStore struct {
	tracks       map[uint32]string
	fingerprints map[uint32][]store.Row // track id -> rows
	nextID       uint32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tracks:       make(map[uint32]string),
		fingerprints: make(map[uint32][]store.Row),
	}
}

func (f *fakeStore) AddTrack(title string) (uint32, error) {
	for id, t := range f.tracks {
		if t == title {
			return id, nil
		}
	}
	f.nextID++
	f.tracks[f.nextID] = title
	return f.nextID, nil
}

func (f *fakeStore) ReplaceFingerprints(trackID uint32, records map[uint32]landmark.PairRecord) error {
	rows := make([]store.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, store.Row{Hash: r.Hash, TrackTime: r.TimeA})
	}
	f.fingerprints[trackID] = rows
	return nil
}

func (f *fakeStore) DistinctTracksWithAnyHash(hashes []uint32) ([]uint32, error) {
	want := make(map[uint32]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}
	var out []uint32
	for trackID, rows := range f.fingerprints {
		for _, r := range rows {
			if want[r.Hash] {
				out = append(out, trackID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) FingerprintsFor(trackID uint32, hashes []uint32) ([]store.Row, error) {
	want := make(map[uint32]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}
	var out []store.Row
	for _, r := range f.fingerprints[trackID] {
		if want[r.Hash] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) TrackTitles(trackIDs []uint32) (map[uint32]string, error) {
	out := make(map[uint32]string, len(trackIDs))
	for _, id := range trackIDs {
		out[id] = f.tracks[id]
	}
	return out, nil
}

func (f *fakeStore) ListTracks() ([]store.Track, error) {
	var out []store.Track
	for id, title := range f.tracks {
		out = append(out, store.Track{ID: id, Title: title})
	}
	return out, nil
}

func (f *fakeStore) Counts() (int, int, error) {
	fp := 0
	for _, rows := range f.fingerprints {
		fp += len(rows)
	}
	return len(f.tracks), fp, nil
}

func (f *fakeStore) EraseAll() error {
	f.tracks = make(map[uint32]string)
	f.fingerprints = make(map[uint32][]store.Row)
	return nil
}

func (f *fakeStore) Close() error { return nil }

var _ store.Store = (*fakeStore)(nil)

func TestScoreEmptyQueryReturnsNoCandidatesNoError(t *testing.T) {
	st := newFakeStore()
	out, err := Score(nil, st)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestScoreSelfMatchPicksHighestOffsetAgreement(t *testing.T) {
	st := newFakeStore()
	trackID, err := st.AddTrack("song a")
	require.NoError(t, err)

	stored := map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 50},
		2: {Hash: 2, TimeA: 51},
		3: {Hash: 3, TimeA: 52},
	}
	require.NoError(t, st.ReplaceFingerprints(trackID, stored))

	// query clip starts 10 windows into the track: every hash's
	// stored time should be offset exactly 10 from the query time.
	query := map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 40},
		2: {Hash: 2, TimeA: 41},
		3: {Hash: 3, TimeA: 42},
	}

	candidates, err := Score(query, st)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "song a", candidates[0].Title)
	assert.Equal(t, 3, candidates[0].Count)
	assert.Equal(t, 10, candidates[0].BestOffset)
	assert.Equal(t, 1, candidates[0].DistinctBins)
}

func TestScoreRanksByCountThenLowestOffset(t *testing.T) {
	st := newFakeStore()
	trackA, err := st.AddTrack("track a")
	require.NoError(t, err)
	trackB, err := st.AddTrack("track b")
	require.NoError(t, err)
	trackC, err := st.AddTrack("track c")
	require.NoError(t, err)

	require.NoError(t, st.ReplaceFingerprints(trackA, map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 10},
	}))
	require.NoError(t, st.ReplaceFingerprints(trackB, map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 10},
		2: {Hash: 2, TimeA: 11},
	}))
	// track c ties track a on count (1) but at offset 5 instead of 10.
	require.NoError(t, st.ReplaceFingerprints(trackC, map[uint32]landmark.PairRecord{
		2: {Hash: 2, TimeA: 6},
	}))

	query := map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 0},
		2: {Hash: 2, TimeA: 1},
	}

	candidates, err := Score(query, st)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "track b", candidates[0].Title)
	assert.Equal(t, 2, candidates[0].Count)
	assert.Equal(t, "track c", candidates[1].Title)
	assert.Equal(t, 5, candidates[1].BestOffset)
	assert.Equal(t, "track a", candidates[2].Title)
	assert.Equal(t, 10, candidates[2].BestOffset)
}

func TestScoreIgnoresNegativeOffsets(t *testing.T) {
	st := newFakeStore()
	trackID, err := st.AddTrack("track a")
	require.NoError(t, err)

	require.NoError(t, st.ReplaceFingerprints(trackID, map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 5},
	}))

	query := map[uint32]landmark.PairRecord{
		1: {Hash: 1, TimeA: 50}, // query time after stored time -> negative offset, excluded
	}

	candidates, err := Score(query, st)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
