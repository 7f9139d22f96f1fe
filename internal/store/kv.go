// Package store keeps the artifact digest index for a versions directory.
//
// The index lives in artifacts.db (bbolt) next to versions.json and maps a
// commit id to the BLAKE3 digest of its snapshot and preview artifacts.
// Commits written before the index existed simply have no entry.
package store

import (
	"errors"
	"time"

	"go.etcd.io/bbolt"

	"github.com/javanhut/artgit/internal/cas"
)

// Buckets
var (
	BucketSnapshot = []byte("commit->snapshot") // commit id -> blake3 hex of snapshot bytes
	BucketPreview  = []byte("commit->preview")  // commit id -> blake3 hex of thumbnail bytes
)

// ErrNoEntry is returned when a commit has no recorded digest.
var ErrNoEntry = errors.New("no digest recorded")

// FileName is the index file name inside a versions directory.
const FileName = "artifacts.db"

type DB struct{ *bbolt.DB }

// Open opens or creates the index at path. A second process holding the
// file lock makes Open fail after one second instead of blocking forever.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{BucketSnapshot, BucketPreview} {
			if _, e := tx.CreateBucketIfNotExists(b); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// PutArtifacts records the snapshot digest and, when non-zero, the preview digest.
func (db *DB) PutArtifacts(commitID string, snapshot, preview cas.Hash) error {
	return db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(BucketSnapshot).Put([]byte(commitID), []byte(snapshot.String())); err != nil {
			return err
		}
		if preview.IsZero() {
			return nil
		}
		return tx.Bucket(BucketPreview).Put([]byte(commitID), []byte(preview.String()))
	})
}

// SnapshotDigest returns the recorded snapshot digest for commitID.
func (db *DB) SnapshotDigest(commitID string) (cas.Hash, error) {
	return db.lookup(BucketSnapshot, commitID)
}

// PreviewDigest returns the recorded preview digest for commitID.
func (db *DB) PreviewDigest(commitID string) (cas.Hash, error) {
	return db.lookup(BucketPreview, commitID)
}

// CommitIDs returns every commit id with a recorded snapshot digest.
func (db *DB) CommitIDs() ([]string, error) {
	var ids []string
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketSnapshot).ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (db *DB) lookup(bucket []byte, commitID string) (cas.Hash, error) {
	var h cas.Hash
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(commitID))
		if v == nil {
			return ErrNoEntry
		}
		parsed, err := cas.ParseHash(string(v))
		if err != nil {
			return err
		}
		h = parsed
		return nil
	})
	return h, err
}
