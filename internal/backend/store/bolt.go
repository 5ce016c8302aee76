package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boltdb/bolt"
)

var usersBucket = []byte("users")

// BoltStore persists users to a bolt database so stub state survives
// restarts during local development. Merchants and rules are code-seeded
// and are not persisted.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(usersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating users bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// PutUser writes one user record, keyed by lowercased email.
func (b *BoltStore) PutUser(u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).Put([]byte(strings.ToLower(u.Email)), data)
	})
}

// LoadUsers reads all persisted users.
func (b *BoltStore) LoadUsers() (map[string]User, error) {
	users := make(map[string]User)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(k, v []byte) error {
			var u User
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("decoding user %s: %w", k, err)
			}
			users[string(k)] = u
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// AttachBolt loads persisted users into memory and turns on write-through
// persistence for subsequent SetUser calls.
func (s *MemoryStore) AttachBolt(b *BoltStore) error {
	users, err := b.LoadUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		s.Users.LoadSnapshot(users)
	}
	s.bolt = b
	return nil
}
