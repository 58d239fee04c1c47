package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	xutil "EngDB/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	// MastToken is the pre-obtained MAST API token forwarded on every request.
	MastToken string `yaml:"mast_token" validate:"required"`
	Mast      struct {
		BaseURL     string        `yaml:"base_url" default:"https://mast.stsci.edu" validate:"required,url"`
		AuthURL     string        `yaml:"auth_url" default:"https://auth.mast.stsci.edu" validate:"required,url"`
		Timeout     time.Duration `yaml:"timeout" default:"0s" validate:"gte=0"`
		PageSize    int           `yaml:"page_size" default:"50000" validate:"gte=1"`
		VerifyToken bool          `yaml:"verify_token"`
		UserAgent   string        `yaml:"user_agent" default:"engdb/1.0"`
		Breaker     struct {
			Enabled     bool          `yaml:"enabled"`
			MaxRequests uint32        `yaml:"max_requests" default:"1"`
			Interval    time.Duration `yaml:"interval" default:"60s"`
			Timeout     time.Duration `yaml:"timeout" default:"30s"`
			MinRequests uint32        `yaml:"min_requests" default:"5"`
			// FailureRatio trips the breaker once reached over MinRequests.
			FailureRatio float64 `yaml:"failure_ratio" default:"0.6" validate:"gt=0,lte=1"`
		} `yaml:"breaker"`
	} `yaml:"mast"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		TTL      time.Duration `yaml:"ttl" default:"10m" validate:"gte=0"`
		MaxItems int           `yaml:"max_items" default:"64" validate:"gte=1"`
		// Services lists the service names whose responses may be cached.
		Services []string `yaml:"services"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"engdb"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stderr" validate:"required"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// RateLimit is the sustained requests per second allowed per client IP; 0 disables it.
		RateLimit float64 `yaml:"rate_limit" default:"5" validate:"gte=0"`
		Burst     float64 `yaml:"burst" default:"10" validate:"gte=0"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults to a YAML document and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// The token may come from the environment alone, so validation runs after the overrides.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("MAST_API_TOKEN"); v != "" {
		c.MastToken = v
	}
	if v := getenv("MAST_BASE_URL"); v != "" {
		c.Mast.BaseURL = v
	}
	if v := getenv("EDB_PAGE_SIZE"); v != "" {
		c.Mast.PageSize = xutil.ParseIntDefault(v, c.Mast.PageSize)
	}
	if v := getenv("EDB_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("EDB_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v := getenv("EDB_CACHE_SERVICES"); v != "" {
		c.Cache.Services = strings.Split(v, ",")
	}
	if v := getenv("EDB_REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = host
		if ok {
			c.Cache.Redis.Port = xutil.ParseIntDefault(port, c.Cache.Redis.Port)
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Cache.Redis.Enabled && !c.Cache.Enabled {
		return fmt.Errorf("cache.redis.enabled requires cache.enabled")
	}
	return nil
}
