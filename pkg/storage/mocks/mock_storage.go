// Package mocks holds testify mocks of the storage interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/ashpect/ttlstore/pkg/storage"
)

// Storage is a mock of storage.Storage.
type Storage struct {
	mock.Mock
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{}
}

func (m *Storage) Load(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *Storage) Save(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *Storage) Remove(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *Storage) Keys() ([]string, error) {
	args := m.Called()
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *Storage) Clear() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Storage) Close() error {
	args := m.Called()
	return args.Error(0)
}
