// Package mongostore is an alternate fingerprint store backend built on
// MongoDB, giving the ecosystem's document-store option a concrete home
// alongside the default sqlitestore backend.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"landmarkfp/errs"
	"landmarkfp/landmark"
	"landmarkfp/store"
)

const stage = "store"

type trackDoc struct {
	ID    uint32 `bson:"_id"`
	Title string `bson:"title"`
}

type fingerprintDoc struct {
	Hash      uint32 `bson:"hash"`
	TrackTime uint32 `bson:"track_time"`
	TrackID   uint32 `bson:"track_id"`
}

// DB wraps the tracks and fingerprints collections, satisfying store.Store.
type DB struct {
	client       *mongo.Client
	tracks       *mongo.Collection
	fingerprints *mongo.Collection
}

var _ store.Store = (*DB)(nil)

// Connect dials uri, selects database dbName, ensures the hash/track_id
// indexes fingerprint lookups rely on, and returns a ready DB.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}

	db := client.Database(dbName)
	fingerprints := db.Collection("fingerprints")

	if _, err := fingerprints.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "hash", Value: 1}}},
		{Keys: bson.D{{Key: "track_id", Value: 1}}},
	}); err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}

	return &DB{
		client:       client,
		tracks:       db.Collection("tracks"),
		fingerprints: fingerprints,
	}, nil
}

func (d *DB) ListTracks() ([]store.Track, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cur, err := d.tracks.Find(ctx, bson.M{})
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer cur.Close(ctx)

	var out []store.Track
	for cur.Next(ctx) {
		var doc trackDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out = append(out, store.Track{ID: doc.ID, Title: doc.Title})
	}
	return out, cur.Err()
}

func (d *DB) Counts() (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trackCount, err := d.tracks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, errs.Wrap(stage, errs.StoreError, err)
	}
	fpCount, err := d.fingerprints.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, errs.Wrap(stage, errs.StoreError, err)
	}
	return int(trackCount), int(fpCount), nil
}

// EraseAll deletes every track and fingerprint document.
func (d *DB) EraseAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := d.fingerprints.DeleteMany(ctx, bson.M{}); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	if _, err := d.tracks.DeleteMany(ctx, bson.M{}); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	return nil
}

func (d *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// AddTrack is idempotent per title: a second call with the same title
// returns the id assigned on the first call.
func (d *DB) AddTrack(title string) (uint32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var existing trackDoc
	err := d.tracks.FindOne(ctx, bson.M{"title": title}).Decode(&existing)
	if err == nil {
		return existing.ID, nil
	}
	if err != mongo.ErrNoDocuments {
		return 0, errs.Wrap(stage, errs.StoreError, err)
	}

	id, err := d.nextTrackID(ctx)
	if err != nil {
		return 0, errs.Wrap(stage, errs.StoreError, err)
	}

	if _, err := d.tracks.InsertOne(ctx, trackDoc{ID: id, Title: title}); err != nil {
		return 0, errs.Wrap(stage, errs.StoreError, err)
	}
	return id, nil
}

// nextTrackID counts existing tracks; fine for the small catalogs this
// backend is meant to demonstrate, and avoids needing a separate
// counters collection.
func (d *DB) nextTrackID(ctx context.Context) (uint32, error) {
	n, err := d.tracks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return uint32(n) + 1, nil
}

// ReplaceFingerprints deletes every document for trackID and inserts one
// per record. Mongo has no cross-collection transaction requirement
// here since both operations target a single collection scoped by
// track_id.
func (d *DB) ReplaceFingerprints(trackID uint32, records map[uint32]landmark.PairRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := d.fingerprints.DeleteMany(ctx, bson.M{"track_id": trackID}); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}

	if len(records) == 0 {
		return nil
	}

	docs := make([]any, 0, len(records))
	for _, r := range records {
		docs = append(docs, fingerprintDoc{Hash: r.Hash, TrackTime: r.TimeA, TrackID: trackID})
	}

	if _, err := d.fingerprints.InsertMany(ctx, docs); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}
	return nil
}

func (d *DB) DistinctTracksWithAnyHash(hashes []uint32) ([]uint32, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raw, err := d.fingerprints.Distinct(ctx, "track_id", bson.M{"hash": bson.M{"$in": hashes}})
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}

	out := make([]uint32, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int32:
			out = append(out, uint32(n))
		case int64:
			out = append(out, uint32(n))
		case float64:
			out = append(out, uint32(n))
		}
	}
	return out, nil
}

func (d *DB) FingerprintsFor(trackID uint32, hashes []uint32) ([]store.Row, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cur, err := d.fingerprints.Find(ctx, bson.M{
		"track_id": trackID,
		"hash":     bson.M{"$in": hashes},
	})
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer cur.Close(ctx)

	var out []store.Row
	for cur.Next(ctx) {
		var doc fingerprintDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out = append(out, store.Row{Hash: doc.Hash, TrackTime: doc.TrackTime})
	}
	return out, cur.Err()
}

func (d *DB) TrackTitles(trackIDs []uint32) (map[uint32]string, error) {
	out := make(map[uint32]string, len(trackIDs))
	if len(trackIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cur, err := d.tracks.Find(ctx, bson.M{"_id": bson.M{"$in": trackIDs}})
	if err != nil {
		return nil, errs.Wrap(stage, errs.StoreError, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc trackDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(stage, errs.StoreError, err)
		}
		out[doc.ID] = doc.Title
	}
	return out, cur.Err()
}
