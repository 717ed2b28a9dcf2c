package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Journal persists auth events in BoltDB until they are flushed to the
// primary store. Losing Postgres must never lose the audit trail.
type Journal struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Journal, error) {
	if bucket == "" {
		bucket = "auth_events"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Append stores an entry keyed by queue time so flushes stay ordered.
func (j *Journal) Append(entry Entry) error {
	if j == nil || j.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	entry.normalize()
	entry.bucketKey = []byte(buildKey(entry))

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(j.bucket).Put(entry.bucketKey, payload)
	})
}

// GetBatch returns up to limit entries without removing them.
func (j *Journal) GetBatch(limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(j.bucket).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entry.bucketKey = append([]byte(nil), k...)
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Remove deletes the provided entry from the journal.
func (j *Journal) Remove(entry Entry) error {
	if j == nil || j.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(entry.bucketKey) == 0 {
		return j.deleteByID(entry.Event.ID)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(j.bucket).Delete(entry.bucketKey)
	})
}

// Requeue re-inserts an entry after bumping its queue timestamp.
func (j *Journal) Requeue(entry Entry) error {
	entry.bucketKey = nil
	entry.Queued = time.Now()
	return j.Append(entry)
}

// Size returns the number of journaled entries.
func (j *Journal) Size() (int, error) {
	if j == nil || j.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := j.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(j.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) deleteByID(id string) error {
	if id == "" {
		return nil
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(j.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.Event.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

func buildKey(entry Entry) string {
	return fmt.Sprintf("%020d_%s", entry.Queued.UnixNano(), entry.Event.ID)
}
