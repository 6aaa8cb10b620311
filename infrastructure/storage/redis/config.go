// Package redis provides a Redis-backed oracle response cache, shared
// between planner processes.
package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	// Addrs lists server addresses; more than one selects a cluster client.
	Addrs []string

	// Password for authentication (optional).
	Password string

	// DB selects the database index. Ignored for clusters.
	DB int

	// MaxRetries is the maximum number of retries per command.
	MaxRetries int

	// DialTimeout bounds connection setup, including the startup ping.
	DialTimeout time.Duration

	// ReadTimeout and WriteTimeout bound socket I/O.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// KeyPrefix namespaces all keys.
	KeyPrefix string
}

// DefaultConfig returns a single-node local configuration.
func DefaultConfig() Config {
	return Config{
		Addrs:        []string{"localhost:6379"},
		MaxRetries:   2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     8,
		KeyPrefix:    "toolplan:",
	}
}

// ConfigOption configures the connection.
type ConfigOption func(*Config)

// WithAddrs sets the server addresses.
func WithAddrs(addrs ...string) ConfigOption {
	return func(c *Config) {
		c.Addrs = addrs
	}
}

// WithPassword sets the authentication password.
func WithPassword(password string) ConfigOption {
	return func(c *Config) {
		c.Password = password
	}
}

// WithDB sets the database index.
func WithDB(db int) ConfigOption {
	return func(c *Config) {
		c.DB = db
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// WithDialTimeout sets the dial timeout.
func WithDialTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.DialTimeout = d
	}
}

func (c Config) universal() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:        c.Addrs,
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		PoolSize:     c.PoolSize,
	}
}
