package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	drepo "EngDB/internal/domain/repository"
	"EngDB/internal/service/envelope"
	"EngDB/pkg/cache"
	"EngDB/pkg/logger"
	"EngDB/pkg/metrics"
)

const keyPrefix = "edb"

// CachedRequester serves repeated requests for allowlisted services from a
// byte cache. Only COMPLETE responses are stored. Cache failures are logged
// and the request falls through to the wrapped requester.
type CachedRequester struct {
	next     drepo.ServiceRequester
	store    cache.Service
	ttl      time.Duration
	services map[string]struct{}
	logger   *logger.Logger
	metrics  drepo.Metrics
}

// CachedOption configures a CachedRequester.
type CachedOption func(*CachedRequester)

func WithCacheLogger(l *logger.Logger) CachedOption {
	return func(c *CachedRequester) { c.logger = l }
}

func WithCacheMetrics(m drepo.Metrics) CachedOption {
	return func(c *CachedRequester) { c.metrics = m }
}

// WithCachedServices replaces the allowlist. An empty list keeps the default,
// which is the inventory service only.
func WithCachedServices(services ...string) CachedOption {
	return func(c *CachedRequester) {
		if len(services) == 0 {
			return
		}
		c.services = make(map[string]struct{}, len(services))
		for _, s := range services {
			c.services[s] = struct{}{}
		}
	}
}

// NewCachedRequester wraps next with store. ttl <= 0 uses the store default.
func NewCachedRequester(next drepo.ServiceRequester, store cache.Service, ttl time.Duration, opts ...CachedOption) *CachedRequester {
	c := &CachedRequester{
		next:     next,
		store:    store,
		ttl:      ttl,
		services: map[string]struct{}{drepo.ServiceInventory: {}},
		logger:   logger.NewNop(),
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedRequester) Request(ctx context.Context, service string, params map[string]string) (*drepo.RawResponse, error) {
	if _, ok := c.services[service]; !ok {
		return c.next.Request(ctx, service, params)
	}

	key := cacheKey(service, params)
	body, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.RecordCacheLookup(true)
		c.logger.Debug("edb cache hit", logger.String("service", service))
		return &drepo.RawResponse{Service: service, Body: body}, nil
	case errors.Is(err, cache.ErrCacheMiss):
		c.metrics.RecordCacheLookup(false)
	default:
		c.metrics.RecordCacheLookup(false)
		c.metrics.RecordError("cache")
		c.logger.Warn("edb cache read failed", logger.String("service", service), logger.Error(err))
	}

	resp, err := c.next.Request(ctx, service, params)
	if err != nil {
		return nil, err
	}
	if !complete(resp.Body) {
		return resp, nil
	}
	if err := c.store.Set(ctx, key, resp.Body, c.ttl); err != nil {
		c.metrics.RecordError("cache")
		c.logger.Warn("edb cache write failed", logger.String("service", service), logger.Error(err))
	}
	return resp, nil
}

// Invalidate drops every cached response.
func (c *CachedRequester) Invalidate(ctx context.Context) error {
	return c.store.DeleteByPrefix(ctx, keyPrefix+":")
}

func cacheKey(service string, params map[string]string) string {
	return cache.GenerateKeyWithParams(keyPrefix, service, cache.HashKey(cache.CanonicalParams(params)))
}

func complete(body []byte) bool {
	var head struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return false
	}
	return head.Status == envelope.StatusComplete
}

var _ drepo.ServiceRequester = (*CachedRequester)(nil)
