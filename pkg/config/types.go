package config

import (
	"time"

	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage/etcdstore"
	"github.com/ashpect/ttlstore/pkg/storage/miniostore"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendEtcd   = "etcd"
	BackendMinio  = "minio"
)

type proxyCfg struct {
	UpstreamURL         string        `toml:"upstreamURL"`
	MaxIdleConns        int           `toml:"maxIdleConn"`
	MaxIdleConnsPerHost int           `toml:"maxIdleConnPerHost"`
	IdleConnTimeout     time.Duration `toml:"idleConnTimeout"`
	Timeout             time.Duration `toml:"timeout"`
	PreserveHost        bool          `toml:"preserveHost"`
}

type cacheCfg struct {
	Enabled bool `toml:"enabled"`
	// DefaultTTL is in ticks (minutes), used when the upstream sends no max-age.
	// 0 caches such responses without expiry.
	DefaultTTL int64 `toml:"defaultTTL"`
	// Responses with larger bodies are not cached.
	MaxBodySize int64 `toml:"maxBodySize"`
}

type fileCfg struct {
	Path         string `toml:"path"`
	CompactEvery int    `toml:"compactEvery"`
}

type StorageCfg struct {
	Backend string `toml:"backend"`
	// Capacity bounds the bytes held by the memory and file backends.
	// 0 means unbounded.
	Capacity int64             `toml:"capacity"`
	File     fileCfg           `toml:"file"`
	Etcd     etcdstore.Config  `toml:"etcd"`
	Minio    miniostore.Config `toml:"minio"`
}

type SystemCfg struct {
	ListenAddr string `toml:"listenaddr"`
	// AdminAddr serves /cache/* and /metrics. Empty disables the admin server.
	AdminAddr  string     `toml:"adminaddr"`
	ProxyCfg   proxyCfg   `toml:"proxy"`
	CacheCfg   cacheCfg   `toml:"cache"`
	StorageCfg StorageCfg `toml:"storage"`
	LogCfg     log.Config `toml:"log"`
}
