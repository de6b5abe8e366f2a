package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var entriesBucket = []byte("resume_mutations")

// BoltStore keeps the journal in a local bbolt file so pending entries survive a restart
// when no database is configured.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBolt opens or creates the journal file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the bbolt file.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Begin(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		if b.Get([]byte(e.ID)) != nil {
			return fmt.Errorf("journal entry %s already exists", e.ID)
		}
		return b.Put([]byte(e.ID), payload)
	})
}

func (s *BoltStore) Advance(ctx context.Context, id string, step int) error {
	return s.modify(ctx, id, func(e *Entry) {
		e.Step = step
	})
}

func (s *BoltStore) Finish(ctx context.Context, id string, status Status, lastErr string) error {
	return s.modify(ctx, id, func(e *Entry) {
		e.Status = status
		e.LastError = lastErr
	})
}

func (s *BoltStore) modify(ctx context.Context, id string, fn func(*Entry)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		raw := b.Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("decode journal entry %s: %w", id, err)
		}
		fn(&e)
		e.UpdatedAt = s.now()
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), payload)
	})
}

func (s *BoltStore) Pending(ctx context.Context, resumeID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Entry, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode journal entry %s: %w", k, err)
			}
			if e.ResumeID == resumeID && e.Status == StatusPending {
				out = append(out, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *BoltStore) DeleteByResume(ctx context.Context, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		var keys [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			if e.ResumeID == resumeID {
				keys = append(keys, append([]byte(nil), k...))
			}
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ Store = (*BoltStore)(nil)
