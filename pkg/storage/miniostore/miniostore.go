// Package miniostore keeps each host-store record as an object in an S3
// compatible bucket.
package miniostore

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage"
)

const defaultRequestTimeout = 10 * time.Second

// error codes returned by MinIO when a write would exceed a quota
var quotaCodes = []string{
	"XMinioAdminBucketQuotaExceeded",
	"XMinioStorageFull",
	"EntityTooLarge",
}

type Config struct {
	Address         string        `toml:"address"`
	AccessKeyID     string        `toml:"access_key_id"`
	SecretAccessKey string        `toml:"secret_access_key"`
	UseSSL          bool          `toml:"use_ssl"`
	BucketName      string        `toml:"bucket_name"`
	RootPath        string        `toml:"root_path"`
	CreateBucket    bool          `toml:"create_bucket"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
}

type Store struct {
	client         *minio.Client
	bucketName     string
	rootPath       string
	requestTimeout time.Duration
}

var _ storage.Storage = (*Store)(nil)

// Open connects to the bucket, creating it when cfg.CreateBucket is set.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Address, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create minio client for %s", cfg.Address)
	}
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", cfg.BucketName)
	}
	if !exists {
		if !cfg.CreateBucket {
			return nil, errors.Newf("bucket %s does not exist", cfg.BucketName)
		}
		log.Info("creating bucket", zap.String("bucket", cfg.BucketName))
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", cfg.BucketName)
		}
	}
	s := New(client, cfg.BucketName, cfg.RootPath, cfg.RequestTimeout)
	log.Info("minio store opened", zap.String("address", cfg.Address),
		zap.String("bucket", cfg.BucketName), zap.String("rootPath", s.rootPath))
	return s, nil
}

// New wraps an existing client. The bucket must already exist.
func New(client *minio.Client, bucketName, rootPath string, requestTimeout time.Duration) *Store {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	rootPath = strings.Trim(rootPath, "/")
	if rootPath != "" {
		rootPath += "/"
	}
	return &Store{
		client:         client,
		bucketName:     bucketName,
		rootPath:       rootPath,
		requestTimeout: requestTimeout,
	}
}

func (s *Store) objectName(key string) string {
	return s.rootPath + key
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.requestTimeout)
}

func (s *Store) Load(key string) (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	object, err := s.client.GetObject(ctx, s.bucketName, s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return "", classify(err, "get object "+key)
	}
	defer object.Close()

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, object); err != nil {
		return "", classify(err, "read object "+key)
	}
	return buf.String(), nil
}

func (s *Store) Save(key, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.client.PutObject(ctx, s.bucketName, s.objectName(key), strings.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	return classify(err, "put object "+key)
}

func (s *Store) Remove(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	err := s.client.RemoveObject(ctx, s.bucketName, s.objectName(key), minio.RemoveObjectOptions{})
	return classify(err, "remove object "+key)
}

func (s *Store) listObjects(ctx context.Context) <-chan minio.ObjectInfo {
	return s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s.rootPath,
		Recursive: true,
	})
}

func (s *Store) Keys() ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	var keys []string
	for object := range s.listObjects(ctx) {
		if object.Err != nil {
			return nil, errors.Wrap(object.Err, "list objects")
		}
		keys = append(keys, strings.TrimPrefix(object.Key, s.rootPath))
	}
	return keys, nil
}

func (s *Store) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()
	objects := make(chan minio.ObjectInfo)
	var listErr error
	go func() {
		defer close(objects)
		for object := range s.listObjects(ctx) {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			objects <- object
		}
	}()
	var removeErr error
	for rerr := range s.client.RemoveObjects(ctx, s.bucketName, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil && removeErr == nil {
			removeErr = errors.Wrapf(rerr.Err, "remove object %s", rerr.ObjectName)
		}
	}
	if removeErr != nil {
		return removeErr
	}
	return errors.Wrap(listErr, "list objects")
}

func (s *Store) Close() error {
	return nil
}

// classify maps MinIO error codes onto the storage sentinel errors.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := minio.ToErrorResponse(err).Code
	switch {
	case code == "NoSuchKey":
		return errors.Wrap(storage.ErrKeyNotFound, msg)
	case lo.Contains(quotaCodes, code):
		return storage.WrapCapacityExceeded(err, "%s", msg)
	}
	return errors.Wrap(err, msg)
}
