// Package filestore is a persistent host store: an in-memory ordered index
// backed by an append-only log that is replayed on open.
package filestore

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage"
	"github.com/ashpect/ttlstore/pkg/storage/memstore"
)

const (
	defaultCompactEvery = 1024
	maxLineSize         = 64 * 1024 * 1024
)

type Option func(*Store)

// WithCapacity bounds the total size of keys and values in bytes.
func WithCapacity(capacity int64) Option {
	return func(s *Store) {
		s.capacity = capacity
	}
}

// WithCompactEvery rewrites the log after n appended records. n <= 0 disables
// automatic compaction.
func WithCompactEvery(n int) Option {
	return func(s *Store) {
		s.compactEvery = n
	}
}

type Store struct {
	mu           sync.Mutex
	path         string
	index        *memstore.Store
	log          *aof
	capacity     int64
	compactEvery int
	appended     int
	closed       bool
}

var _ storage.Storage = (*Store)(nil)

// Open replays the log at path (creating it if needed) and returns a store
// ready for writes. State restored from the log is never refused for lack of
// capacity; the quota only applies to new writes.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:         path,
		index:        memstore.New(0),
		compactEvery: defaultCompactEvery,
	}
	for _, opt := range opts {
		opt(s)
	}

	applied, err := replay(path, func(rec record) {
		switch rec.Op {
		case opSave:
			s.index.Restore(rec.Key, rec.Value)
		case opRemove:
			_ = s.index.Remove(rec.Key)
		case opClear:
			_ = s.index.Clear()
		}
	})
	if err != nil {
		return nil, err
	}
	s.index.SetCapacity(s.capacity)

	s.log, err = openAOF(path)
	if err != nil {
		return nil, err
	}
	s.appended = applied
	log.Info("file store opened",
		zap.String("path", path),
		zap.Int("replayed", applied),
		zap.Int("keys", s.index.Len()),
		zap.Int64("usedBytes", s.index.Used()))
	return s, nil
}

func (s *Store) Load(key string) (string, error) {
	return s.index.Load(key)
}

func (s *Store) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("file store is closed")
	}
	if err := s.index.Fits(key, value); err != nil {
		return err
	}
	if err := s.log.append(record{Op: opSave, Key: key, Value: value}); err != nil {
		return err
	}
	s.index.Restore(key, value)
	s.afterAppendLocked()
	return nil
}

func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("file store is closed")
	}
	if _, err := s.index.Load(key); storage.IsNotFound(err) {
		return nil
	}
	if err := s.log.append(record{Op: opRemove, Key: key}); err != nil {
		return err
	}
	_ = s.index.Remove(key)
	s.afterAppendLocked()
	return nil
}

func (s *Store) Keys() ([]string, error) {
	return s.index.Keys()
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("file store is closed")
	}
	if err := s.log.append(record{Op: opClear}); err != nil {
		return err
	}
	_ = s.index.Clear()
	s.afterAppendLocked()
	return nil
}

// Compact rewrites the log so it holds exactly one record per live key.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("file store is closed")
	}
	return s.compactLocked()
}

func (s *Store) compactLocked() error {
	err := s.log.rewrite(func(emit func(record) error) error {
		var emitErr error
		s.index.Ascend(func(key, value string) bool {
			emitErr = emit(record{Op: opSave, Key: key, Value: value})
			return emitErr == nil
		})
		return emitErr
	})
	if err != nil {
		return err
	}
	s.appended = s.index.Len()
	return nil
}

func (s *Store) afterAppendLocked() {
	s.appended++
	if s.compactEvery <= 0 || s.appended < s.compactEvery+s.index.Len() {
		return
	}
	if err := s.compactLocked(); err != nil {
		log.Warn("file store compaction failed", zap.String("path", s.path), zap.Error(err))
		return
	}
	log.Debug("file store compacted", zap.String("path", s.path), zap.Int("keys", s.index.Len()))
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.log.close()
}

func (s *Store) Used() int64 {
	return s.index.Used()
}
