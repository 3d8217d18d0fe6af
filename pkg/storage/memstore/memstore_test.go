package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ashpect/ttlstore/pkg/storage"
	"github.com/ashpect/ttlstore/pkg/storage/storagetest"
)

type MemStoreSuite struct {
	storagetest.Suite
}

func TestMemStore(t *testing.T) {
	suite.Run(t, &MemStoreSuite{storagetest.Suite{
		New: func() storage.Storage { return New(0) },
	}})
}

func TestMemStore_Capacity(t *testing.T) {
	s := New(10)

	require.NoError(t, s.Save("ab", "cdef")) // 6 bytes
	assert.Equal(t, int64(6), s.Used())

	err := s.Save("gh", "ijk") // 5 more bytes
	assert.True(t, storage.IsCapacityExceeded(err))
	_, err = s.Load("gh")
	assert.True(t, storage.IsNotFound(err))
	assert.Equal(t, int64(6), s.Used())

	// growing an existing key only charges the difference
	require.NoError(t, s.Save("ab", "cdefghij"))
	assert.Equal(t, int64(10), s.Used())

	// shrinking always fits
	require.NoError(t, s.Save("ab", "c"))
	assert.Equal(t, int64(3), s.Used())

	require.NoError(t, s.Remove("ab"))
	assert.Equal(t, int64(0), s.Used())
	assert.Equal(t, 0, s.Len())
}

func TestMemStore_FitsAndRestore(t *testing.T) {
	s := New(4)
	assert.NoError(t, s.Fits("a", "bcd"))
	assert.True(t, storage.IsCapacityExceeded(s.Fits("a", "bcde")))

	s.Restore("key", "value")
	assert.Equal(t, int64(8), s.Used())
	val, err := s.Load("key")
	require.NoError(t, err)
	assert.Equal(t, "value", val)

	// over quota: new bytes are refused until space is freed
	assert.True(t, storage.IsCapacityExceeded(s.Save("x", "y")))
	require.NoError(t, s.Remove("key"))
	assert.NoError(t, s.Save("x", "y"))
}

func TestMemStore_SetCapacity(t *testing.T) {
	s := New(0)
	require.NoError(t, s.Save("aaaa", "bbbb"))
	s.SetCapacity(9)
	assert.Equal(t, int64(9), s.Capacity())
	assert.NoError(t, s.Save("c", ""))
	assert.Error(t, s.Save("d", ""))
}

func TestMemStore_ClearResetsUsage(t *testing.T) {
	s := New(100)
	require.NoError(t, s.Save("a", "1"))
	require.NoError(t, s.Save("b", "2"))
	require.NoError(t, s.Clear())
	assert.Equal(t, int64(0), s.Used())
	assert.Equal(t, 0, s.Len())
}

func TestMemStore_Ascend(t *testing.T) {
	s := New(0)
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.Save(k, k+k))
	}
	var got []string
	s.Ascend(func(key, value string) bool {
		got = append(got, key+"="+value)
		return key != "b"
	})
	assert.Equal(t, []string{"a=aa", "b=bb"}, got)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
