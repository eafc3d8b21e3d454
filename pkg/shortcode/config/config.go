package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SHORTCODE_ADMIN_TOKEN.
const EnvPrefix = "SHORTCODE"

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all runtime settings for the server.
type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	AdminToken      string        `mapstructure:"admin_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Swagger         bool          `mapstructure:"swagger"`

	DB    DBConfig    `mapstructure:"db"`
	Log   LogConfig   `mapstructure:"log"`
	Redis RedisConfig `mapstructure:"redis"`
	Cache CacheConfig `mapstructure:"cache"`
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// RedisConfig configures the optional redirect cache backend.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	MaxWait        time.Duration `mapstructure:"max_wait"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
}

// CacheConfig controls cached redirect entries.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// AdminEnabled reports whether admin routes can ever authorize.
func (c *Config) AdminEnabled() bool {
	return c.AdminToken != ""
}

// CacheEnabled reports whether a redis cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("admin_token", "")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("swagger", false)

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.dsn", "shortcode.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_timeout", 30*time.Second)
	v.SetDefault("redis.retry_interval", 1*time.Second)
	v.SetDefault("redis.max_wait", 10*time.Second)
	v.SetDefault("redis.ping_timeout", 2*time.Second)

	v.SetDefault("cache.ttl", 10*time.Minute)
}

// Load reads configuration from defaults, the optional YAML file at path,
// and SHORTCODE_* environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("unsupported db.driver %q", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be > 0, got %v", c.ShutdownTimeout))
	}
	if c.CacheEnabled() {
		if c.Cache.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must be > 0, got %v", c.Cache.TTL))
		}
		if c.Redis.ConnectTimeout <= 0 {
			errs = append(errs, fmt.Errorf("redis.connect_timeout must be > 0, got %v", c.Redis.ConnectTimeout))
		}
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AdminToken != "" {
		c.AdminToken = "***REDACTED***"
	}
	if c.Redis.Password != "" {
		c.Redis.Password = "***REDACTED***"
	}
	// Network DSNs carry credentials; sqlite DSNs are file paths.
	if c.DB.Driver != DriverSQLite {
		c.DB.DSN = "***REDACTED***"
	}
	return c
}
