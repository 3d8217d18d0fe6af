// Package storagetest is a conformance suite every storage.Storage
// implementation is expected to pass.
package storagetest

import (
	"github.com/stretchr/testify/suite"

	"github.com/ashpect/ttlstore/pkg/storage"
)

// Suite runs against a fresh, empty store per test. Embed it and set New.
type Suite struct {
	suite.Suite

	New   func() storage.Storage
	Store storage.Storage
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.New, "storagetest.Suite.New must be set")
	s.Store = s.New()
	s.Require().NoError(s.Store.Clear())
}

func (s *Suite) TearDownTest() {
	if s.Store == nil {
		return
	}
	s.NoError(s.Store.Clear())
	s.NoError(s.Store.Close())
}

func (s *Suite) TestSaveAndLoad() {
	tests := []struct {
		key   string
		value string
	}{
		{"test1", "value1"},
		{"test2", "value2"},
		{"test1/a", "value_a"},
		{"akey-_burry_", `{"foo":"bar"}`},
		{"akey-_burry_exp_", "28000000"},
		{"empty", ""},
	}
	for _, test := range tests {
		s.Require().NoError(s.Store.Save(test.key, test.value))
	}
	for _, test := range tests {
		val, err := s.Store.Load(test.key)
		s.NoError(err, test.key)
		s.Equal(test.value, val, test.key)
	}
}

func (s *Suite) TestOverwrite() {
	s.Require().NoError(s.Store.Save("k", "v1"))
	s.Require().NoError(s.Store.Save("k", "v2"))
	val, err := s.Store.Load("k")
	s.NoError(err)
	s.Equal("v2", val)

	keys, err := s.Store.Keys()
	s.NoError(err)
	s.Equal([]string{"k"}, keys)
}

func (s *Suite) TestLoadMissing() {
	for _, key := range []string{"t", "test1a", "test1/"} {
		val, err := s.Store.Load(key)
		s.True(storage.IsNotFound(err), "key %q: %v", key, err)
		s.Zero(val)
	}
}

func (s *Suite) TestRemoveIsIdempotent() {
	s.Require().NoError(s.Store.Save("k", "v"))
	s.NoError(s.Store.Remove("k"))
	s.NoError(s.Store.Remove("k"))
	s.NoError(s.Store.Remove("never-saved"))

	_, err := s.Store.Load("k")
	s.True(storage.IsNotFound(err))
}

func (s *Suite) TestKeys() {
	keys, err := s.Store.Keys()
	s.NoError(err)
	s.Empty(keys)

	for _, key := range []string{"b", "a", "c/d"} {
		s.Require().NoError(s.Store.Save(key, "x"))
	}
	keys, err = s.Store.Keys()
	s.NoError(err)
	s.ElementsMatch([]string{"a", "b", "c/d"}, keys)
}

func (s *Suite) TestClear() {
	for _, key := range []string{"a", "b"} {
		s.Require().NoError(s.Store.Save(key, "x"))
	}
	s.NoError(s.Store.Clear())

	keys, err := s.Store.Keys()
	s.NoError(err)
	s.Empty(keys)
	_, err = s.Store.Load("a")
	s.True(storage.IsNotFound(err))
}
