// Package memstore is an in-memory host store with a byte quota, ordered by key.
package memstore

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"go.uber.org/atomic"

	"github.com/ashpect/ttlstore/pkg/storage"
)

const degree = 32

type item struct {
	key, value string
}

func less(a, b item) bool {
	return a.key < b.key
}

func size(key, value string) int64 {
	return int64(len(key) + len(value))
}

// Store keeps every record in a B-tree. An entry costs len(key)+len(value)
// bytes against the capacity; capacity <= 0 means unbounded.
type Store struct {
	mu       sync.RWMutex
	tree     *btree.BTreeG[item]
	capacity *atomic.Int64
	used     *atomic.Int64
}

var _ storage.Storage = (*Store)(nil)

func New(capacity int64) *Store {
	return &Store{
		tree:     btree.NewG[item](degree, less),
		capacity: atomic.NewInt64(capacity),
		used:     atomic.NewInt64(0),
	}
}

func (s *Store) Load(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.tree.Get(item{key: key})
	if !ok {
		return "", errors.Wrapf(storage.ErrKeyNotFound, "key=%s", key)
	}
	return it.value, nil
}

func (s *Store) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fitsLocked(key, value); err != nil {
		return err
	}
	s.putLocked(key, value)
	return nil
}

// Fits reports, without writing, whether Save(key, value) would succeed.
func (s *Store) Fits(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitsLocked(key, value)
}

// Restore writes a record ignoring the capacity. It is meant for replaying
// state that was already accepted once.
func (s *Store) Restore(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(key, value)
}

func (s *Store) fitsLocked(key, value string) error {
	capacity := s.capacity.Load()
	if capacity <= 0 {
		return nil
	}
	delta := size(key, value)
	if old, ok := s.tree.Get(item{key: key}); ok {
		delta -= size(old.key, old.value)
	}
	if used := s.used.Load(); delta > 0 && used+delta > capacity {
		return errors.Wrapf(storage.ErrCapacityExceeded,
			"key=%s needs %d bytes, %d of %d used", key, delta, used, capacity)
	}
	return nil
}

func (s *Store) putLocked(key, value string) {
	if old, replaced := s.tree.ReplaceOrInsert(item{key: key, value: value}); replaced {
		s.used.Sub(size(old.key, old.value))
	}
	s.used.Add(size(key, value))
}

func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.tree.Delete(item{key: key}); ok {
		s.used.Sub(size(old.key, old.value))
	}
	return nil
}

// Keys returns keys in ascending order.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, s.tree.Len())
	s.tree.Ascend(func(it item) bool {
		keys = append(keys, it.key)
		return true
	})
	return keys, nil
}

// Ascend calls fn for every record in key order until fn returns false.
func (s *Store) Ascend(fn func(key, value string) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.tree.Ascend(func(it item) bool {
		return fn(it.key, it.value)
	})
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Clear(false)
	s.used.Store(0)
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Used is the number of bytes currently charged against the capacity.
func (s *Store) Used() int64 {
	return s.used.Load()
}

func (s *Store) Capacity() int64 {
	return s.capacity.Load()
}

func (s *Store) SetCapacity(capacity int64) {
	s.capacity.Store(capacity)
}
