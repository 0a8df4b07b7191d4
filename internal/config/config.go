// Package config loads service settings from defaults, an optional YAML file
// and AUCTION_ prefixed environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"auction-bidding/utils"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "AUCTION_"
	// DefaultFile is read when present and no explicit path is given
	DefaultFile = "config.yaml"
)

// Store and cache drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`

	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Redis    RedisConfig    `koanf:"redis"`
	Auction  AuctionConfig  `koanf:"auction"`
}

type ServerConfig struct {
	Host            string          `koanf:"host"`
	Port            int             `koanf:"port"`
	ReadTimeout     time.Duration   `koanf:"read_timeout"`
	WriteTimeout    time.Duration   `koanf:"write_timeout"`
	ShutdownTimeout time.Duration   `koanf:"shutdown_timeout"`
	RateLimit       RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig is per client IP; RequestsPerSecond 0 disables it
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
	Migrate  bool   `koanf:"migrate"`
}

type CacheConfig struct {
	Driver            string `koanf:"driver"`
	TTLSeconds        int    `koanf:"ttl_seconds"`
	ListCacheKey      string `koanf:"list_cache_key"`
	InvalidateOnWrite bool   `koanf:"invalidate_on_write"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type AuctionConfig struct {
	Timezone       string `koanf:"timezone"`
	MaxBidAttempts int    `koanf:"max_bid_attempts"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "json",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{Driver: DriverMemory},
		Database: DatabaseConfig{
			MaxConns: 10,
			Migrate:  true,
		},
		Cache: CacheConfig{
			Driver:       DriverMemory,
			TTLSeconds:   600,
			ListCacheKey: "auctions",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Auction: AuctionConfig{
			Timezone:       utils.DefaultTimezone,
			MaxBidAttempts: 3,
		},
	}
}

// LoadEnvFile loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the configuration. An explicit path must exist; with an empty
// path DefaultFile is used if present.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps AUCTION_CACHE__TTL_SECONDS to cache.ttl_seconds
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate reports the first inconsistent setting
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	switch c.Cache.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("config: redis.addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("config: cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds)
	}
	if c.Auction.MaxBidAttempts < 1 {
		return fmt.Errorf("config: auction.max_bid_attempts must be positive, got %d", c.Auction.MaxBidAttempts)
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return errors.New("config: server.rate_limit.requests_per_second must not be negative")
	}
	if _, err := utils.LoadLocation(c.Auction.Timezone); err != nil {
		return fmt.Errorf("config: auction.timezone: %w", err)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
