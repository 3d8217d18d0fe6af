package miniostore

import (
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ashpect/ttlstore/pkg/storage"
	"github.com/ashpect/ttlstore/pkg/storage/storagetest"
)

func testConfig(t *testing.T) Config {
	addr := os.Getenv("TTLSTORE_MINIO_ADDRESS")
	if addr == "" {
		t.Skip("TTLSTORE_MINIO_ADDRESS not set")
	}
	return Config{
		Address:         addr,
		AccessKeyID:     os.Getenv("TTLSTORE_MINIO_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("TTLSTORE_MINIO_SECRET_KEY"),
		BucketName:      "ttlstore-test",
		RootPath:        "suite",
		CreateBucket:    true,
	}
}

type MinioStoreSuite struct {
	storagetest.Suite
}

func TestMinioStore(t *testing.T) {
	cfg := testConfig(t)
	suite.Run(t, &MinioStoreSuite{storagetest.Suite{
		New: func() storage.Storage {
			s, err := Open(context.Background(), cfg)
			require.NoError(t, err)
			return s
		},
	}})
}

func TestOpen_MissingBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.BucketName = "ttlstore-does-not-exist"
	cfg.CreateBucket = false
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_RootPath(t *testing.T) {
	s := New(nil, "bucket", "/cache/", 0)
	assert.Equal(t, "cache/k-_burry_", s.objectName("k-_burry_"))
	assert.Equal(t, defaultRequestTimeout, s.requestTimeout)

	s = New(nil, "bucket", "", 0)
	assert.Equal(t, "k", s.objectName("k"))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "put"))

	err := classify(minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}, "get k")
	assert.True(t, storage.IsNotFound(err))

	for _, code := range quotaCodes {
		err = classify(minio.ErrorResponse{Code: code}, "put k")
		assert.True(t, storage.IsCapacityExceeded(err), code)
		assert.False(t, storage.IsNotFound(err), code)
	}

	err = classify(minio.ErrorResponse{Code: "AccessDenied"}, "put k")
	assert.False(t, storage.IsCapacityExceeded(err))
	assert.False(t, storage.IsNotFound(err))

	err = classify(errors.New("connection reset"), "put k")
	assert.Contains(t, err.Error(), "put k")
}
