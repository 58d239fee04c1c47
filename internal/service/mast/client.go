package mast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EngDB/internal/domain/models"
	drepo "EngDB/internal/domain/repository"
	xhttp "EngDB/pkg/http"
	"EngDB/pkg/logger"
	"EngDB/pkg/metrics"
)

const invokePath = "/api/v0/invoke"

// Session owns the MAST token. It is created once from configuration and
// handed to every Client that should act on its behalf.
type Session struct {
	token string
}

// NewSession wraps a pre-obtained MAST API token.
func NewSession(token string) *Session {
	return &Session{token: token}
}

func (s *Session) authorization() string {
	return "token " + s.token
}

// Client implements repository.ServiceRequester against the MAST invoke API.
type Client struct {
	session  *Session
	baseURL  string
	authURL  string
	pageSize int
	http     *xhttp.Client
	logger   *logger.Logger
	metrics  drepo.Metrics
	guard    Guard
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL  string
	authURL  string
	pageSize int
	timeout  time.Duration
	userAgt  string
	httpOpts []xhttp.ClientOption
	logger   *logger.Logger
	metrics  drepo.Metrics
	guard    Guard
}

// WithBaseURL points the client at another MAST host (tests, mirrors).
func WithBaseURL(u string) Option { return func(c *clientConfig) { c.baseURL = u } }

// WithAuthURL sets the MAST auth host used by Login.
func WithAuthURL(u string) Option { return func(c *clientConfig) { c.authURL = u } }

// WithPageSize sets the single page size requested from the service.
func WithPageSize(n int) Option { return func(c *clientConfig) { c.pageSize = n } }

// WithTimeout bounds each HTTP call. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option { return func(c *clientConfig) { c.timeout = d } }

func WithUserAgent(ua string) Option { return func(c *clientConfig) { c.userAgt = ua } }

func WithHTTPOptions(opts ...xhttp.ClientOption) Option {
	return func(c *clientConfig) { c.httpOpts = append(c.httpOpts, opts...) }
}

func WithLogger(l *logger.Logger) Option { return func(c *clientConfig) { c.logger = l } }

func WithMetrics(m drepo.Metrics) Option { return func(c *clientConfig) { c.metrics = m } }

// WithGuard runs every request through g, e.g. a circuit breaker.
func WithGuard(g Guard) Option { return func(c *clientConfig) { c.guard = g } }

// New creates a MAST service client bound to session.
func New(session *Session, opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL:  "https://mast.stsci.edu",
		authURL:  "https://auth.mast.stsci.edu",
		pageSize: 50000,
		userAgt:  "engdb/1.0",
		logger:   logger.NewNop(),
		metrics:  metrics.Nop{},
		guard:    passthrough{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpOpts := []xhttp.ClientOption{
		xhttp.WithTimeout(cfg.timeout),
		xhttp.WithHeader("User-Agent", cfg.userAgt),
		xhttp.WithHeader("Authorization", session.authorization()),
	}
	httpOpts = append(httpOpts, cfg.httpOpts...)

	return &Client{
		session:  session,
		baseURL:  strings.TrimRight(cfg.baseURL, "/"),
		authURL:  strings.TrimRight(cfg.authURL, "/"),
		pageSize: cfg.pageSize,
		http:     xhttp.NewClient(httpOpts...),
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		guard:    cfg.guard,
	}
}

type invokeRequest struct {
	Service           string            `json:"service"`
	Params            map[string]string `json:"params"`
	Format            string            `json:"format"`
	PageSize          int               `json:"pagesize"`
	Page              int               `json:"page"`
	RemoveNullColumns bool              `json:"removenullcolumns"`
}

// Request issues exactly one invoke call for service with params and
// returns the raw body. Transport and HTTP status errors are returned as-is.
func (c *Client) Request(ctx context.Context, service string, params map[string]string) (*drepo.RawResponse, error) {
	if params == nil {
		params = map[string]string{}
	}
	payload, err := json.Marshal(invokeRequest{
		Service:           service,
		Params:            params,
		Format:            "json",
		PageSize:          c.pageSize,
		Page:              1,
		RemoveNullColumns: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", service, err)
	}

	start := time.Now()
	body, err := c.guard.Do(func() ([]byte, error) {
		return c.http.SendAndRead(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.baseURL + invokePath,
			Headers: map[string]string{
				"Content-Type": xhttp.ContentTypeForm,
				"Accept":       "text/plain",
			},
			Body: map[string]string{"request": string(payload)},
		})
	})
	elapsed := time.Since(start)
	c.metrics.RecordLatency(service, elapsed.Seconds())

	if err != nil {
		c.metrics.RecordRequest(service, "error")
		c.logger.Error("mast request failed",
			logger.String("service", service),
			logger.Duration("duration_ms", elapsed),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", service, err)
	}

	c.metrics.RecordRequest(service, "ok")
	c.logger.Debug("mast request",
		logger.String("service", service),
		logger.Any("params", params),
		logger.Duration("duration_ms", elapsed),
		logger.Int("bytes", len(body)),
	)
	return &drepo.RawResponse{Service: service, Body: body}, nil
}

// SessionInfo is the subset of the MAST auth info document the client reads.
type SessionInfo struct {
	EZID      string                 `json:"ezid"`
	Anonymous bool                   `json:"anon"`
	Attrib    map[string]interface{} `json:"attrib"`
}

// Login checks the session token against the MAST auth service. It does not
// obtain or refresh tokens.
func (c *Client) Login(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.authURL + "/info",
		Headers: map[string]string{"Accept": xhttp.ContentTypeJSON},
	}, &info)
	if err != nil {
		return nil, fmt.Errorf("mast login: %w", err)
	}
	if info.Anonymous || info.EZID == "" {
		return nil, fmt.Errorf("mast login: %w", models.ErrTokenRejected)
	}
	c.logger.Info("mast token accepted", logger.String("user", info.EZID))
	return &info, nil
}

var _ drepo.ServiceRequester = (*Client)(nil)
