// Package config loads process configuration: defaults, then an optional YAML
// file, then IDATTEST_* environment overrides.
package config

import (
	"crypto/sha256"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	id "idattest/pkg/domain"
	strutil "idattest/pkg/platform/strings"
)

// Ledger backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DefaultProgramID is the program id used when none is configured, a fixed
// digest so addresses are stable across dev runs.
var DefaultProgramID id.Pubkey = sha256.Sum256([]byte("idattest/devnet"))

// Config is the full process configuration.
type Config struct {
	Server   Server         `yaml:"server"`
	Registry Registry       `yaml:"registry"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Notary   Notary         `yaml:"notary"`
	LogLevel string         `yaml:"logLevel"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// Reverse proxies allowed to set X-Forwarded-For, as IPs or CIDRs.
	TrustedProxies []string `yaml:"trustedProxies"`
}

// TrustedProxyPrefixes parses TrustedProxies; a bare IP is a single-host prefix.
func (s Server) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Registry configures the registry service.
type Registry struct {
	ProgramID      string        `yaml:"programId"`
	Backend        string        `yaml:"backend"`
	TxTimeout      time.Duration `yaml:"txTimeout"`
	RequestLeeway  time.Duration `yaml:"requestLeeway"`
	EventLogSize   int           `yaml:"eventLogSize"`
	EventQueueSize int           `yaml:"eventQueueSize"`
}

// Program parses ProgramID, falling back to DefaultProgramID.
func (r Registry) Program() (id.Pubkey, error) {
	if r.ProgramID == "" {
		return DefaultProgramID, nil
	}
	return id.ParsePubkey(r.ProgramID)
}

type PostgresConfig struct {
	URL          string        `yaml:"url"`
	MaxOpenConns int           `yaml:"maxOpenConns"`
	MaxIdleConns int           `yaml:"maxIdleConns"`
	ConnMaxLife  time.Duration `yaml:"connMaxLife"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"poolSize"`
	MinIdleConns int           `yaml:"minIdleConns"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	TxRetries    int           `yaml:"txRetries"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	Partitions  int32    `yaml:"partitions"`
	Replication int16    `yaml:"replication"`
}

// Enabled reports whether events should be produced to Kafka.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Notary configures the notary service.
type Notary struct {
	Addr       string  `yaml:"addr"`
	KeyFile    string  `yaml:"keyFile"`
	Passphrase string  `yaml:"-"`
	RateLimit  float64 `yaml:"rateLimit"`
	RateBurst  int     `yaml:"rateBurst"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Registry: Registry{
			Backend:        BackendMemory,
			TxTimeout:      5 * time.Second,
			RequestLeeway:  5 * time.Second,
			EventLogSize:   1024,
			EventQueueSize: 256,
		},
		Postgres: PostgresConfig{
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			ConnMaxLife:  30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			TxRetries:    3,
		},
		Kafka: KafkaConfig{
			Topic:       "idattest.registry.events",
			Partitions:  3,
			Replication: 1,
		},
		Notary: Notary{
			Addr:      ":7047",
			RateLimit: 5,
			RateBurst: 10,
		},
		LogLevel: "info",
	}
}

// Load reads path (if non-empty) over the defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Kafka.Brokers = strutil.DedupeAndTrim(cfg.Kafka.Brokers)
	cfg.Server.TrustedProxies = strutil.DedupeAndTrim(cfg.Server.TrustedProxies)
	return cfg, cfg.Validate()
}

// FromEnv builds the config from defaults and environment only. The optional
// file path comes from IDATTEST_CONFIG.
func FromEnv() (Config, error) {
	return Load(os.Getenv("IDATTEST_CONFIG"))
}

// Validate rejects configurations the servers cannot start with.
func (c Config) Validate() error {
	switch c.Registry.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("config: postgres backend requires IDATTEST_DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("config: redis backend requires IDATTEST_REDIS_URL")
		}
	default:
		return fmt.Errorf("config: unknown ledger backend %q", c.Registry.Backend)
	}
	if _, err := c.Registry.Program(); err != nil {
		return fmt.Errorf("config: program id: %w", err)
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Notary.RateLimit < 0 || c.Notary.RateBurst < 0 {
		return fmt.Errorf("config: notary rate limit must not be negative")
	}
	return nil
}

// ApplyEnvOverrides applies IDATTEST_* variables.
func ApplyEnvOverrides(cfg *Config) error {
	setString(&cfg.Server.Addr, "IDATTEST_ADDR")
	setString(&cfg.Registry.ProgramID, "IDATTEST_PROGRAM_ID")
	setString(&cfg.Registry.Backend, "IDATTEST_LEDGER_BACKEND")
	setString(&cfg.Postgres.URL, "IDATTEST_DATABASE_URL")
	setString(&cfg.Redis.URL, "IDATTEST_REDIS_URL")
	setString(&cfg.Kafka.Topic, "IDATTEST_KAFKA_TOPIC")
	setString(&cfg.Notary.Addr, "IDATTEST_NOTARY_ADDR")
	setString(&cfg.Notary.KeyFile, "IDATTEST_NOTARY_KEYFILE")
	setString(&cfg.Notary.Passphrase, "IDATTEST_NOTARY_PASSPHRASE")
	setString(&cfg.LogLevel, "IDATTEST_LOG_LEVEL")

	if raw := strings.TrimSpace(os.Getenv("IDATTEST_KAFKA_BROKERS")); raw != "" {
		cfg.Kafka.Brokers = strutil.SplitList(raw)
	}
	if raw := strings.TrimSpace(os.Getenv("IDATTEST_TRUSTED_PROXIES")); raw != "" {
		cfg.Server.TrustedProxies = strutil.SplitList(raw)
	}
	if err := setInt(&cfg.Redis.PoolSize, "IDATTEST_REDIS_POOL_SIZE"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Registry.TxTimeout, "IDATTEST_TX_TIMEOUT"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Notary.RateLimit, "IDATTEST_NOTARY_RATE_LIMIT"); err != nil {
		return err
	}
	return setInt(&cfg.Notary.RateBurst, "IDATTEST_NOTARY_RATE_BURST")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = v
	return nil
}
