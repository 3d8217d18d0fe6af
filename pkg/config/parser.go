package config

import (
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage/etcdstore"
	"github.com/ashpect/ttlstore/pkg/storage/miniostore"
)

func defaultSystemCfg() *SystemCfg {
	return &SystemCfg{
		ListenAddr: ":8000",
		AdminAddr:  ":8001",
		ProxyCfg: proxyCfg{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     10 * time.Second,
			Timeout:             30 * time.Second,
		},
		CacheCfg: cacheCfg{
			Enabled:     true,
			DefaultTTL:  1,
			MaxBodySize: 1 << 20,
		},
		StorageCfg: StorageCfg{
			Backend:  BackendMemory,
			Capacity: 64 << 20,
			File: fileCfg{
				Path:         "ttlstore.aof",
				CompactEvery: 1024,
			},
			Etcd: etcdstore.Config{
				RootPath:       "/ttlstore",
				DialTimeout:    5 * time.Second,
				RequestTimeout: 10 * time.Second,
			},
			Minio: miniostore.Config{
				RootPath:       "ttlstore",
				RequestTimeout: 10 * time.Second,
			},
		},
		LogCfg: log.Config{
			Level:  "info",
			Format: log.FormatText,
		},
	}
}

// LoadConfig decodes the TOML file at path over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*SystemCfg, error) {
	config := defaultSystemCfg()
	if path != "" {
		md, err := toml.DecodeFile(path, config)
		if err != nil {
			return nil, errors.Wrapf(err, "decode config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			log.S().Warnf("unknown config keys in %s: %v", path, undecoded)
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *SystemCfg) Validate() error {
	if c.ProxyCfg.UpstreamURL == "" {
		return errors.New("proxy.upstreamURL is required")
	}
	u, err := url.Parse(c.ProxyCfg.UpstreamURL)
	if err != nil {
		return errors.Wrap(err, "invalid proxy.upstreamURL")
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.Newf("proxy.upstreamURL %q needs a scheme and host", c.ProxyCfg.UpstreamURL)
	}
	if c.CacheCfg.DefaultTTL < 0 {
		return errors.Newf("cache.defaultTTL must not be negative, got %d", c.CacheCfg.DefaultTTL)
	}
	switch c.StorageCfg.Backend {
	case BackendMemory:
	case BackendFile:
		if c.StorageCfg.File.Path == "" {
			return errors.New("storage.file.path is required for the file backend")
		}
	case BackendEtcd:
		if len(c.StorageCfg.Etcd.Endpoints) == 0 {
			return errors.New("storage.etcd.endpoints is required for the etcd backend")
		}
	case BackendMinio:
		if c.StorageCfg.Minio.Address == "" || c.StorageCfg.Minio.BucketName == "" {
			return errors.New("storage.minio.address and storage.minio.bucket_name are required for the minio backend")
		}
	default:
		return errors.Newf("unknown storage backend %q", c.StorageCfg.Backend)
	}
	return nil
}

// UpstreamURL returns the parsed upstream. Validate must have passed.
func (c *SystemCfg) UpstreamURL() *url.URL {
	u, _ := url.Parse(c.ProxyCfg.UpstreamURL)
	return u
}
