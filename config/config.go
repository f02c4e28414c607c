package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds settings shared by the API server, storage-init and board-view.
type Config struct {
	Debug   bool          `mapstructure:"debug"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Events  EventsConfig  `mapstructure:"events"`
	View    ViewConfig    `mapstructure:"view"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// StorageConfig selects where the board snapshot lives.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	Path       string `mapstructure:"path"`
	SQLitePath string `mapstructure:"sqlite_path"`
	History    int    `mapstructure:"history"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

// EventsConfig controls change notification delivery.
type EventsConfig struct {
	Channel               string        `mapstructure:"channel"`
	Workers               int           `mapstructure:"workers"`
	Buffer                int           `mapstructure:"buffer"`
	HandoffTimeout        time.Duration `mapstructure:"handoff_timeout"`
	QueueConnectionString string        `mapstructure:"queue_connection_string"`
	QueueName             string        `mapstructure:"queue_name"`
}

type ViewConfig struct {
	APIURL string `mapstructure:"api_url"`
}

type SeedConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from an optional TOML file named by KANBAN_CONFIG
// and from KANBAN_* environment variables, then validates it.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("debug", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "data/board.json")
	v.SetDefault("storage.sqlite_path", "data/board.db")
	v.SetDefault("storage.history", 50)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key", "kanban:board")
	v.SetDefault("events.channel", "kanban-board-events")
	v.SetDefault("events.workers", 4)
	v.SetDefault("events.buffer", 256)
	v.SetDefault("events.handoff_timeout", 15*time.Millisecond)
	v.SetDefault("events.queue_connection_string", "")
	v.SetDefault("events.queue_name", "board-events")
	v.SetDefault("view.api_url", "http://localhost:8080")
	v.SetDefault("seed.path", "")

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("KANBAN_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the services cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for the redis driver")
		}
	default:
		return fmt.Errorf("invalid storage.driver: %q", c.Storage.Driver)
	}
	if c.Storage.History < 0 {
		return fmt.Errorf("invalid storage.history: must not be negative")
	}
	if c.Events.Workers <= 0 {
		return fmt.Errorf("invalid events.workers: must be greater than zero")
	}
	if c.Events.Buffer < 0 {
		return fmt.Errorf("invalid events.buffer: must not be negative")
	}
	if c.Events.HandoffTimeout < 0 {
		return fmt.Errorf("invalid events.handoff_timeout: must not be negative")
	}
	return nil
}

// ListenAddr is the address the API server binds.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// RedisOptions parses either a redis:// URL or the "host:port,password=…,ssl=true"
// form used by Azure Cache connection strings.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, fmt.Errorf("empty redis connection string")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	if strings.Contains(parts[0], "://") {
		return nil, fmt.Errorf("invalid redis url %q", conn)
	}
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}
