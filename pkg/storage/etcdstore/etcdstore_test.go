package etcdstore

import (
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"

	"github.com/ashpect/ttlstore/pkg/storage"
	"github.com/ashpect/ttlstore/pkg/storage/storagetest"
)

func endpoints(t *testing.T) []string {
	raw := os.Getenv("TTLSTORE_ETCD_ENDPOINTS")
	if raw == "" {
		t.Skip("TTLSTORE_ETCD_ENDPOINTS not set")
	}
	return strings.Split(raw, ",")
}

type EtcdStoreSuite struct {
	storagetest.Suite
}

func TestEtcdStore(t *testing.T) {
	eps := endpoints(t)
	suite.Run(t, &EtcdStoreSuite{storagetest.Suite{
		New: func() storage.Storage {
			s, err := Dial(Config{Endpoints: eps, RootPath: "/ttlstore-test/" + t.Name()})
			require.NoError(t, err)
			return s
		},
	}})
}

func TestEtcdStore_RootPathIsolation(t *testing.T) {
	eps := endpoints(t)
	a, err := Dial(Config{Endpoints: eps, RootPath: "/ttlstore-test/a"})
	require.NoError(t, err)
	defer a.Close()
	b, err := Dial(Config{Endpoints: eps, RootPath: "/ttlstore-test/ab"})
	require.NoError(t, err)
	defer b.Close()
	defer a.Clear()
	defer b.Clear()

	require.NoError(t, a.Save("k", "1"))
	require.NoError(t, b.Save("k", "2"))

	keys, err := a.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	require.NoError(t, a.Clear())
	val, err := b.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "2", val)
}

func TestDial_NoEndpoints(t *testing.T) {
	_, err := Dial(Config{})
	assert.Error(t, err)
}

func TestNew_RootPath(t *testing.T) {
	s := New(nil, "/cache/", 0)
	assert.Equal(t, "/cache/k-_burry_", s.path("k-_burry_"))
	assert.Equal(t, defaultRequestTimeout, s.requestTimeout)

	s = New(nil, "/cache", 0)
	assert.Equal(t, "/cache/k", s.path("k"))
	assert.NoError(t, s.Close())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "put"))

	err := classify(rpctypes.ErrNoSpace, "put k")
	assert.True(t, storage.IsCapacityExceeded(err))
	assert.Contains(t, err.Error(), "put k")

	err = classify(errors.New("connection refused"), "put k")
	assert.Error(t, err)
	assert.False(t, storage.IsCapacityExceeded(err))
}
