// Package sqlitestore is the default fingerprint store backend: an
// embedded SQLite database reached through database/sql, the direct Go
// analogue of the original tool's rusqlite-backed store.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"landmarkfp/errs"
	"landmarkfp/landmark"
	"landmarkfp/store"
)

const stage = "store"

// DB wraps a *sql.DB satisfying store.Store.
type DB struct {
	conn *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open connects to (creating if necessary) the sqlite database at path
// and ensures the tracks/fingerprints schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, fmt.Errorf("opening %s: %w", path, err))
	}

	if err := createSchema(conn); err != nil {
		conn.Close()
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}

	return &DB{conn: conn}, nil
}

func createSchema(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS fingerprints (
			hash       INTEGER NOT NULL,
			track_time INTEGER NOT NULL,
			track_id   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_hash ON fingerprints (hash)`,
		`CREATE INDEX IF NOT EXISTS idx_fingerprints_track ON fingerprints (track_id)`,
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error { return d.conn.Close() }

// EraseAll deletes every track and fingerprint row.
func (d *DB) EraseAll() error {
	tx, err := d.conn.Begin()
	if err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fingerprints`); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	if _, err := tx.Exec(`DELETE FROM tracks`); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	return nil
}

// AddTrack is idempotent per title: a second call with the same title
// returns the id assigned on the first call.
func (d *DB) AddTrack(title string) (uint32, error) {
	var id int64
	err := d.conn.QueryRow(`SELECT id FROM tracks WHERE title = ?`, title).Scan(&id)
	if err == nil {
		return uint32(id), nil
	}
	if err != sql.ErrNoRows {
		return 0, errs.Wrap(stage, errs.StoreError, err)
	}

	res, err := d.conn.Exec(`INSERT INTO tracks (title) VALUES (?)`, title)
	if err != nil {
		return 0, errs.Wrap(stage, errs.StoreError, fmt.Errorf("inserting track %q: %w", title, err))
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Wrap(stage, errs.StoreError, err)
	}
	return uint32(newID), nil
}

// ReplaceFingerprints deletes every row for trackID and inserts one row
// per record, inside a single transaction - a failed insert rolls the
// delete back too.
func (d *DB) ReplaceFingerprints(trackID uint32, records map[uint32]landmark.PairRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fingerprints WHERE track_id = ?`, trackID); err != nil {
		return errs.Wrap(stage, errs.StoreError, fmt.Errorf("deleting existing rows for track %d: %w", trackID, err))
	}

	const batchSize = 500
	batch := make([]landmark.PairRecord, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*3)
		for i, r := range batch {
			placeholders[i] = "(?, ?, ?)"
			args = append(args, r.Hash, r.TimeA, trackID)
		}
		query := fmt.Sprintf(`INSERT INTO fingerprints (hash, track_time, track_id) VALUES %s`, strings.Join(placeholders, ","))
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("inserting fingerprints for track %d: %w", trackID, err)
		}
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		batch = append(batch, r)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return errs.Wrap(stage, errs.StoreError, err)
			}
		}
	}
	if err := flush(); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	return nil
}

func (d *DB) DistinctTracksWithAnyHash(hashes []uint32) ([]uint32, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(hashes)
	query := fmt.Sprintf(`SELECT DISTINCT track_id FROM fingerprints WHERE hash IN (%s)`, placeholders)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (d *DB) FingerprintsFor(trackID uint32, hashes []uint32) ([]store.Row, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(hashes)
	args = append([]any{trackID}, args...)
	query := fmt.Sprintf(`SELECT hash, track_time FROM fingerprints WHERE track_id = ? AND hash IN (%s)`, placeholders)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var r store.Row
		if err := rows.Scan(&r.Hash, &r.TrackTime); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) TrackTitles(trackIDs []uint32) (map[uint32]string, error) {
	out := make(map[uint32]string, len(trackIDs))
	if len(trackIDs) == 0 {
		return out, nil
	}

	placeholders, args := inClause(trackIDs)
	query := fmt.Sprintf(`SELECT id, title FROM tracks WHERE id IN (%s)`, placeholders)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uint32
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out[id] = title
	}
	return out, rows.Err()
}

func (d *DB) ListTracks() ([]store.Track, error) {
	rows, err := d.conn.Query(`SELECT id, title FROM tracks ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer rows.Close()

	var out []store.Track
	for rows.Next() {
		var t store.Track
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) Counts() (int, int, error) {
	var trackCount, fpCount int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&trackCount); err != nil {
		return 0, 0, errs.Wrap(stage, errs.StoreError, err)
	}
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM fingerprints`).Scan(&fpCount); err != nil {
		return 0, 0, errs.Wrap(stage, errs.StoreError, err)
	}
	return trackCount, fpCount, nil
}

// inClause builds a "?,?,?" placeholder list and the matching arg
// slice for a bulk hash/id-set query - database/sql has no native array
// bind, so this is the idiomatic substitute for the contract's "bulk
// array parameter" requirement.
func inClause(values []uint32) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}
