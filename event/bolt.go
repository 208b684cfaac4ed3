package event

import (
	"encoding/json"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"
)

var eventsBucket = []byte("events")

// BoltSink persists events to a BoltDB file. Keys are "<runID>/<seq>"
// with the sequence zero-padded so a cursor scan over a run prefix
// returns events in causal order.
type BoltSink struct {
	db *bolt.DB
}

// NewBoltSink opens (or creates) the database at path.
func NewBoltSink(path string) (*BoltSink, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSink{db: db}, nil
}

func (s *BoltSink) Publish(e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%012d", e.RunID, e.Seq)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(eventsBucket).Put([]byte(key), raw)
	})
}

// ForRun loads a run's events in sequence order.
func (s *BoltSink) ForRun(runID string) ([]Event, error) {
	var out []Event
	prefix := runID + "/"

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (s *BoltSink) Close() error {
	return s.db.Close()
}
