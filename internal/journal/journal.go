package journal

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const recordBucket = "journal"

// Record is one completed reconciliation outcome. The journal is an audit
// trail only; reconciliation decisions never read it and always re-probe
// both sides.
type Record struct {
	Op      string    `json:"op"`   // store, retrieve or push
	Path    string    `json:"path"` // local path
	Key     string    `json:"key"`  // remote object key
	Hash    string    `json:"hash,omitempty"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mtime"`
	Action  string    `json:"action"` // skip or transfer
	At      time.Time `json:"at"`
}

// Journal provides persistent append-only storage of transfer outcomes
// using BoltDB.
type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) a journal at path.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(recordBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Append records one outcome. Records are keyed by timestamp so iteration
// order is chronological.
func (j *Journal) Append(rec Record) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	key := fmt.Sprintf("%s|%s", rec.At.UTC().Format(time.RFC3339Nano), rec.Key)
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(recordBucket))
		return b.Put([]byte(key), value)
	})
}

// Recent returns up to n records, newest first. n <= 0 returns everything.
func (j *Journal) Recent(n int) ([]Record, error) {
	var records []Record
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(recordBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(records) >= n {
				break
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt record %s: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// Clear removes all records.
func (j *Journal) Clear() error {
	return j.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(recordBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(recordBucket))
		return err
	})
}
