// Package store defines the persistent fingerprint store contract
// (component C4): tracks and (hash, anchor_time, track_id) fingerprint
// rows, with per-track replace semantics. Concrete backends live in
// store/sqlitestore (default) and store/mongostore.
package store

import "landmarkfp/landmark"

// Row is a stored fingerprint match candidate: a hash and the track
// time it was recorded at (spec's "fingerprints_for" result shape).
type Row struct {
	Hash      uint32
	TrackTime uint32
}

// Store is the persistence contract every backend must satisfy. An
// interface abstraction keeps the matcher decoupled from any specific
// engine and lets tests use an in-memory double.
type Store interface {
	// AddTrack returns the existing track id if title is already
	// present, otherwise inserts a new row and returns its id.
	AddTrack(title string) (uint32, error)

	// ReplaceFingerprints atomically deletes every row for trackID and
	// inserts one row per record. All-or-nothing.
	ReplaceFingerprints(trackID uint32, records map[uint32]landmark.PairRecord) error

	// DistinctTracksWithAnyHash returns every track id with at least
	// one fingerprint row whose hash is in hashes.
	DistinctTracksWithAnyHash(hashes []uint32) ([]uint32, error)

	// FingerprintsFor returns every fingerprint row for trackID whose
	// hash is in hashes; duplicates are preserved.
	FingerprintsFor(trackID uint32, hashes []uint32) ([]Row, error)

	// TrackTitles resolves a set of track ids to their titles.
	TrackTitles(trackIDs []uint32) (map[uint32]string, error)

	// ListTracks returns every stored track id and title, for the
	// "tracks" listing endpoint.
	ListTracks() ([]Track, error)

	// Counts returns the total number of tracks and fingerprint rows
	// currently stored, for the "stats" endpoint.
	Counts() (trackCount int, fingerprintCount int, err error)

	// EraseAll deletes every track and fingerprint row, for the CLI's
	// erase verb.
	EraseAll() error

	Close() error
}

// Track is a stored track's id and title.
type Track struct {
	ID    uint32
	Title string
}
