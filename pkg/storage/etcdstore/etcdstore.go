// Package etcdstore keeps host-store records in etcd under a root path.
package etcdstore

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultDialTimeout    = 5 * time.Second
)

type Config struct {
	Endpoints      []string      `toml:"endpoints"`
	RootPath       string        `toml:"root_path"`
	DialTimeout    time.Duration `toml:"dial_timeout"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type Store struct {
	client         *clientv3.Client
	rootPath       string
	requestTimeout time.Duration
	ownsClient     bool
}

var _ storage.Storage = (*Store)(nil)

// New wraps an existing client. Close does not close the client.
func New(client *clientv3.Client, rootPath string, requestTimeout time.Duration) *Store {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Store{
		client:         client,
		rootPath:       strings.TrimSuffix(rootPath, "/") + "/",
		requestTimeout: requestTimeout,
	}
}

// Dial connects to the configured endpoints. The returned store owns the
// client and closes it on Close.
func Dial(cfg Config) (*Store, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("etcd endpoints are empty")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connect etcd %v", cfg.Endpoints)
	}
	s := New(client, cfg.RootPath, cfg.RequestTimeout)
	s.ownsClient = true
	log.Info("etcd store connected", zap.Strings("endpoints", cfg.Endpoints), zap.String("rootPath", s.rootPath))
	return s, nil
}

func (s *Store) path(key string) string {
	return s.rootPath + key
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.requestTimeout)
}

func (s *Store) Load(key string) (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	resp, err := s.client.Get(ctx, s.path(key))
	if err != nil {
		return "", errors.Wrapf(err, "etcd get %s", key)
	}
	if resp.Count <= 0 {
		return "", errors.Wrapf(storage.ErrKeyNotFound, "etcd key %s", key)
	}
	return string(resp.Kvs[0].Value), nil
}

func (s *Store) Save(key, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.client.Put(ctx, s.path(key), value)
	return classify(err, "etcd put "+key)
}

func (s *Store) Remove(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.client.Delete(ctx, s.path(key))
	return errors.Wrapf(err, "etcd delete %s", key)
}

func (s *Store) Keys() ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	resp, err := s.client.Get(ctx, s.rootPath, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, errors.Wrap(err, "etcd list keys")
	}
	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), s.rootPath))
	}
	return keys, nil
}

func (s *Store) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.client.Delete(ctx, s.rootPath, clientv3.WithPrefix())
	return errors.Wrap(err, "etcd clear")
}

func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

// classify maps the etcd quota alarm to storage.ErrCapacityExceeded.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rpctypes.ErrNoSpace) || errors.Is(err, rpctypes.ErrGRPCNoSpace) {
		return storage.WrapCapacityExceeded(err, "%s", msg)
	}
	return errors.Wrap(err, msg)
}
