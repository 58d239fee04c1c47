package di

import (
	"fmt"
	"strings"

	"EngDB/internal/domain/models"
	"EngDB/internal/domain/repository"
	"EngDB/internal/handler/api"
	internalrepo "EngDB/internal/repository"
	"EngDB/internal/service/envelope"
	"EngDB/internal/service/mast"
	"EngDB/internal/service/ratelimit"
	"EngDB/internal/services/plot"
	"EngDB/internal/usecase"
	"EngDB/pkg/cache"
	"EngDB/pkg/config"
	xhttp "EngDB/pkg/http"
	applogger "EngDB/pkg/logger"
	"EngDB/pkg/metrics"
	"EngDB/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry served at the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideSession wraps the configured MAST token.
func ProvideSession(cfg *config.Config) *mast.Session {
	return mast.NewSession(cfg.MastToken)
}

// ProvideMastClient creates the service client, behind a circuit breaker when
// mast.breaker.enabled is set.
func ProvideMastClient(cfg *config.Config, session *mast.Session, l *applogger.Logger, m repository.Metrics) *mast.Client {
	opts := []mast.Option{
		mast.WithBaseURL(cfg.Mast.BaseURL),
		mast.WithAuthURL(cfg.Mast.AuthURL),
		mast.WithPageSize(cfg.Mast.PageSize),
		mast.WithTimeout(cfg.Mast.Timeout),
		mast.WithUserAgent(cfg.Mast.UserAgent),
		mast.WithLogger(l),
		mast.WithMetrics(m),
	}
	if b := cfg.Mast.Breaker; b.Enabled {
		opts = append(opts, mast.WithGuard(mast.NewBreaker(mast.BreakerConfig{
			Name:         "mast",
			MaxRequests:  b.MaxRequests,
			Interval:     b.Interval,
			Timeout:      b.Timeout,
			MinRequests:  b.MinRequests,
			FailureRatio: b.FailureRatio,
		}, l)))
	}
	return mast.New(session, opts...)
}

// ProvideCacheStore opens the response cache. It returns nil when caching is
// disabled. With redis enabled the store is layered: memory in front of redis.
func ProvideCacheStore(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	if !cfg.Cache.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxItems))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MaxItems))
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideRequester returns the client, wrapped by the response cache when one
// is configured. The default is uncached.
func ProvideRequester(cfg *config.Config, client *mast.Client, store cache.Service, l *applogger.Logger, m repository.Metrics) repository.ServiceRequester {
	if store == nil {
		return client
	}
	l.Info("edb response cache enabled",
		applogger.Duration("ttl", cfg.Cache.TTL),
		applogger.String("services", strings.Join(cfg.Cache.Services, ",")),
		applogger.Bool("redis", cfg.Cache.Redis.Enabled),
	)
	return internalrepo.NewCachedRequester(client, store, cfg.Cache.TTL,
		internalrepo.WithCachedServices(cfg.Cache.Services...),
		internalrepo.WithCacheLogger(l),
		internalrepo.WithCacheMetrics(m),
	)
}

func ProvideParser(l *applogger.Logger) *envelope.Parser {
	return envelope.NewParser(l)
}

func ProvideEngineeringDB(req repository.ServiceRequester, p *envelope.Parser, l *applogger.Logger, m repository.Metrics) *usecase.EngineeringDB {
	return usecase.NewEngineeringDB(req, p, l, m)
}

func ProvideRenderer() models.ChartRenderer {
	return plot.NewRenderer()
}

func ProvideHandler(l *applogger.Logger, edb *usecase.EngineeringDB, r models.ChartRenderer) xhttp.Handler {
	return api.NewMnemonicHandler(l, edb, r)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit, int(cfg.Server.Burst))
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	client *mast.Client,
	edb *usecase.EngineeringDB,
	h xhttp.Handler,
	limiter *ratelimit.Limiter,
	reg *prometheus.Registry,
) *server.App {
	return server.New(cfg, l, client, edb, h, limiter, reg)
}
