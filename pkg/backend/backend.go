// Package backend opens the host store selected by configuration.
package backend

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/config"
	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage"
	"github.com/ashpect/ttlstore/pkg/storage/etcdstore"
	"github.com/ashpect/ttlstore/pkg/storage/filestore"
	"github.com/ashpect/ttlstore/pkg/storage/memstore"
	"github.com/ashpect/ttlstore/pkg/storage/miniostore"
)

// Open returns the store named by cfg.Backend. The caller closes it.
func Open(ctx context.Context, cfg config.StorageCfg) (storage.Storage, error) {
	log.Info("opening storage backend", zap.String("backend", cfg.Backend), zap.Int64("capacity", cfg.Capacity))
	switch cfg.Backend {
	case config.BackendMemory, "":
		return memstore.New(cfg.Capacity), nil
	case config.BackendFile:
		s, err := filestore.Open(cfg.File.Path,
			filestore.WithCapacity(cfg.Capacity),
			filestore.WithCompactEvery(cfg.File.CompactEvery))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendEtcd:
		s, err := etcdstore.Dial(cfg.Etcd)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMinio:
		s, err := miniostore.Open(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Newf("unknown storage backend %q", cfg.Backend)
	}
}
