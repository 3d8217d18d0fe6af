package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/backend"
	"github.com/ashpect/ttlstore/pkg/cache"
	"github.com/ashpect/ttlstore/pkg/client"
	"github.com/ashpect/ttlstore/pkg/config"
	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/metrics"
	"github.com/ashpect/ttlstore/pkg/proxy"
	"github.com/ashpect/ttlstore/pkg/serde"
	"github.com/ashpect/ttlstore/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "config.toml", "location of config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}
	lg, props, err := log.InitLogger(&cfg.LogCfg, zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal("init logger failed", zap.Error(err))
	}
	log.ReplaceGlobals(lg, props)
	defer log.Sync()

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, c := openCache(ctx, cfg)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("close storage failed", zap.Error(err))
			}
		}()
	}

	transport := client.NewTransport(
		client.WithMaxIdleConns(cfg.ProxyCfg.MaxIdleConns),
		client.WithMaxIdleConnsPerHost(cfg.ProxyCfg.MaxIdleConnsPerHost),
		client.WithIdleConnTimeout(cfg.ProxyCfg.IdleConnTimeout),
	)
	httpClient := client.NewClient(
		client.WithTransport(transport),
		client.WithTimeout(cfg.ProxyCfg.Timeout),
		client.WithoutRedirects(),
	)

	upstreamURL := cfg.UpstreamURL()
	opts := []proxy.ProxyOption{
		proxy.WithPreserveOriginalHost(cfg.ProxyCfg.PreserveHost),
		proxy.WithMaxBodySize(cfg.CacheCfg.MaxBodySize),
	}
	if c != nil {
		opts = append(opts, proxy.WithCache(cache.NewHandler[*proxy.CachedResponse](c, cfg.CacheCfg.DefaultTTL)))
	}
	proxyHandler := proxy.NewProxy(upstreamURL, httpClient, opts...)

	servers := []*http.Server{{
		Addr:              cfg.ListenAddr,
		Handler:           proxyHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.AdminAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           proxy.NewAdminHandler(c, prometheus.DefaultGatherer),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}(srv)
	}
	log.Info("reverse proxy started", zap.String("listen", cfg.ListenAddr),
		zap.Stringer("upstream", upstreamURL), zap.Bool("cache", c != nil))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown failed", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
}

// openCache returns a nil cache when caching is disabled or the backend is
// unusable; the proxy then serves every request from upstream.
func openCache(ctx context.Context, cfg *config.SystemCfg) (storage.Storage, *cache.Cache) {
	if !cfg.CacheCfg.Enabled {
		log.Info("cache disabled by config")
		return nil, nil
	}
	store, err := backend.Open(ctx, cfg.StorageCfg)
	if err != nil {
		log.Error("open storage failed, serving uncached", zap.Error(err))
		return nil, nil
	}
	if !cache.IsSupported(store, serde.JSON) {
		log.Error("storage rejected the probe write, serving uncached", zap.String("backend", cfg.StorageCfg.Backend))
		return store, nil
	}
	return store, cache.New(store)
}
