// Package storage defines the flat, string-keyed host store the cache is
// layered on. Implementations live in the sub-packages.
package storage

import "github.com/cockroachdb/errors"

var (
	// ErrKeyNotFound is returned by Load when the key is absent.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCapacityExceeded is returned by Save when the store has no room left.
	// Callers may free space and retry.
	ErrCapacityExceeded = errors.New("storage capacity exceeded")
)

// Storage is a synchronous string-keyed key/value store with a fixed capacity.
type Storage interface {
	// Load returns ErrKeyNotFound when key is absent.
	Load(key string) (string, error)
	// Save may fail with ErrCapacityExceeded or any other error.
	Save(key, value string) error
	// Remove is idempotent: removing an absent key is not an error.
	Remove(key string) error
	// Keys returns every key present. Order is unspecified.
	Keys() ([]string, error)
	// Clear removes every key.
	Clear() error
	Close() error
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

func IsCapacityExceeded(err error) bool {
	return errors.Is(err, ErrCapacityExceeded)
}

// WrapCapacityExceeded marks err as a capacity failure while keeping its message.
func WrapCapacityExceeded(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrCapacityExceeded)
}
