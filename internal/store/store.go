package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSession = []byte("session")
	bucketCatalog = []byte("catalog")

	allBuckets = [][]byte{bucketSession, bucketCatalog}
)

// Store keeps the session and catalog pages in a BoltDB file, fronted by
// a per-bucket memory layer that is filled on first read. With no
// directory the memory layer is all there is.
type Store struct {
	db *bolt.DB

	mu  sync.RWMutex
	mem map[string]map[string][]byte // bucket -> key -> value

	now func() time.Time
}

// Open opens (or creates) the store for a backend. Each backend URL gets
// its own database file so sessions from different servers never mix.
func Open(baseDir, backendURL string) (*Store, error) {
	if baseDir == "" {
		return NewMemory(), nil
	}

	dir := baseDir
	if backendURL != "" {
		dir = filepath.Join(baseDir, hashURL(backendURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "portal.db"), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	s := NewMemory()
	s.db = db
	if err := s.update(ensureBuckets); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return s, nil
}

// NewMemory returns a store without persistence
func NewMemory() *Store {
	return &Store{mem: make(map[string]map[string][]byte), now: time.Now}
}

func ensureBuckets(tx *bolt.Tx) error {
	for _, name := range allBuckets {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

func hashURL(u string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(strings.ToLower(u), "/")))
	return hex.EncodeToString(sum[:6])
}

// Persistent reports whether the store writes to disk
func (s *Store) Persistent() bool {
	return s.db != nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// update runs fn in a write transaction; memory-only stores skip it
func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	if s.db == nil {
		return nil
	}
	return s.db.Update(fn)
}

func (s *Store) remember(bucket []byte, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mem[string(bucket)]
	if !ok {
		m = make(map[string][]byte)
		s.mem[string(bucket)] = m
	}
	m[key] = data
}

func (s *Store) getRaw(bucket []byte, key string) ([]byte, bool) {
	s.mu.RLock()
	data, ok := s.mem[string(bucket)][key]
	s.mu.RUnlock()
	if ok || s.db == nil {
		return data, ok
	}

	_ = s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucket); b != nil {
			// bolt values are only valid inside the transaction
			data = bytes.Clone(b.Get([]byte(key)))
		}
		return nil
	})
	if data == nil {
		return nil, false
	}

	s.remember(bucket, key, data)
	return data, true
}

func (s *Store) get(bucket []byte, key string, dest any) bool {
	data, ok := s.getRaw(bucket, key)
	return ok && json.Unmarshal(data, dest) == nil
}

func (s *Store) setRaw(bucket []byte, key string, data []byte) error {
	s.remember(bucket, key, data)
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", bucket, key, err)
	}
	return s.setRaw(bucket, key, data)
}

func (s *Store) delete(bucket []byte, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.mem[string(bucket)], key)
	}
	s.mu.Unlock()

	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) deletePrefix(bucket []byte, prefix string) error {
	s.mu.Lock()
	for key := range s.mem[string(bucket)] {
		if strings.HasPrefix(key, prefix) {
			delete(s.mem[string(bucket)], key)
		}
	}
	s.mu.Unlock()

	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		p := []byte(prefix)
		var doomed [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			doomed = append(doomed, bytes.Clone(k))
		}
		// deleting under an open cursor skips keys
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear wipes every bucket
func (s *Store) Clear() error {
	s.mu.Lock()
	s.mem = make(map[string]map[string][]byte)
	s.mu.Unlock()

	return s.update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if tx.Bucket(name) == nil {
				continue
			}
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return ensureBuckets(tx)
	})
}
