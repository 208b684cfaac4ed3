package store

import (
	"context"
	"encoding/json"

	bolt "go.etcd.io/bbolt"
)

var runsBucket = []byte("runs")

// BoltAdapter persists data to a BoltDB file on disk.
type BoltAdapter struct {
	db *bolt.DB
}

// NewBoltAdapter opens (or creates) a BoltDB database at path.
func NewBoltAdapter(path string) (*BoltAdapter, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltAdapter{db: db}, nil
}

func (b *BoltAdapter) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	var out json.RawMessage
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(runsBucket).Get([]byte(key))
		if raw != nil {
			// Bolt memory is only valid inside the transaction.
			out = make(json.RawMessage, len(raw))
			copy(out, raw)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (b *BoltAdapter) Set(_ context.Context, key string, value json.RawMessage) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(key), value)
	})
}

func (b *BoltAdapter) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Delete([]byte(key))
	})
}

func (b *BoltAdapter) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := b.Get(ctx, key)
	return ok, err
}

func (b *BoltAdapter) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *BoltAdapter) Len(_ context.Context) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(runsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (b *BoltAdapter) Clear(_ context.Context) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(runsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(runsBucket)
		return err
	})
}

func (b *BoltAdapter) Close() error {
	return b.db.Close()
}
