// Package match scores a query fingerprint set against the store and
// ranks candidate tracks by time-offset histogram agreement (component
// C5 of the fingerprint pipeline).
package match

import (
	"sort"

	"landmarkfp/errs"
	"landmarkfp/landmark"
	"landmarkfp/store"
)

const stage = "match"

// Candidate is a ranked match result: the track, how many query hashes
// landed at its best offset, that offset in STFT rows, and the number
// of distinct offset bins the track's histogram spread across.
type Candidate struct {
	TrackID      uint32
	Title        string
	Count        int
	BestOffset   int
	DistinctBins int
}

// Score finds every track sharing at least one hash with query, builds
// a per-track histogram of (track_time - query_time) offsets restricted
// to non-negative offsets, and ranks tracks by their histogram's peak
// count. Ties on count are broken by the lower offset. An empty query
// is not an error: it simply returns no candidates.
func Score(query map[uint32]landmark.PairRecord, st store.Store) ([]Candidate, error) {
	if len(query) == 0 {
		return nil, nil
	}

	hashes := make([]uint32, 0, len(query))
	for h := range query {
		hashes = append(hashes, h)
	}

	trackIDs, err := st.DistinctTracksWithAnyHash(hashes)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	if len(trackIDs) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		rows, err := st.FingerprintsFor(trackID, hashes)
		if err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}

		offset, count, bins := bestOffset(rows, query)
		if count == 0 {
			continue
		}
		candidates = append(candidates, Candidate{TrackID: trackID, Count: count, BestOffset: offset, DistinctBins: bins})
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]uint32, len(candidates))
	for i, c := range candidates {
		ids[i] = c.TrackID
	}
	titles, err := st.TrackTitles(ids)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	for i := range candidates {
		candidates[i].Title = titles[candidates[i].TrackID]
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		return candidates[i].BestOffset < candidates[j].BestOffset
	})

	return candidates, nil
}

// bestOffset accumulates a histogram of track_time - query_time over
// every stored row whose hash also occurs in query, keeping only
// non-negative offsets (the query clip is assumed to start at or after
// the matching point in the original track), and returns the offset
// with the highest count plus the number of distinct offsets the
// histogram spread across. Ties favor the lowest offset.
func bestOffset(rows []store.Row, query map[uint32]landmark.PairRecord) (offset, count, distinctBins int) {
	histogram := make(map[int]int)

	for _, row := range rows {
		rec, ok := query[row.Hash]
		if !ok {
			continue
		}
		delta := int(row.TrackTime) - int(rec.TimeA)
		if delta < 0 {
			continue
		}
		histogram[delta]++
	}

	best := -1
	bestCount := 0
	for delta, n := range histogram {
		if n > bestCount || (n == bestCount && delta < best) {
			best = delta
			bestCount = n
		}
	}
	if bestCount == 0 {
		return 0, 0, 0
	}
	return best, bestCount, len(histogram)
}
