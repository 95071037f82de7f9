package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
//
// The config tags are Manager keys. Environment variables map onto them by
// dropping the prefix and turning underscores into dots, so
// HASTY_SERVER_TIMEOUT_READ sets server.timeout.read.
type Config struct {
	Host            string        `config:"server.host"`
	Port            int           `config:"server.port"`
	ReadTimeout     time.Duration `config:"server.timeout.read"`
	WriteTimeout    time.Duration `config:"server.timeout.write"`
	ShutdownTimeout time.Duration `config:"server.timeout.shutdown"`
	MaxConnections  int           `config:"server.connections.max"`
	ReadBufferSize  int           `config:"server.buffer.read"`
	ReusePort       bool          `config:"server.reuseport"`

	EnableCORS bool   `config:"cors.enabled"`
	LogLevel   string `config:"log.level"`
	LogFormat  string `config:"log.format"`
	Env        string `config:"env"`
	StaticDir  string `config:"static.dir"`
	AdminAddr  string `config:"admin.addr"`

	S3Bucket          string `config:"s3.bucket"`
	S3Prefix          string `config:"s3.prefix"`
	S3Region          string `config:"s3.region"`
	S3Endpoint        string `config:"s3.endpoint"`
	S3AccessKeyID     string `config:"s3.access.key"`
	S3SecretAccessKey string `config:"s3.secret.key"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:            "",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxConnections:  10000,
		ReadBufferSize:  16384,
		LogLevel:        "info",
		LogFormat:       "text",
		Env:             "development",
		StaticDir:       ".",
		S3Region:        "us-east-1",
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max connections %d must not be negative", c.MaxConnections))
	}
	if c.ReadBufferSize < 0 {
		errs = append(errs, fmt.Errorf("read buffer size %d must not be negative", c.ReadBufferSize))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if c.S3Bucket != "" && c.S3Region == "" {
		errs = append(errs, errors.New("s3 bucket set without a region"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Load builds a Config from defaults, an optional JSON file and the
// environment, in that order of precedence (environment wins). The returned
// Manager holds the merged values and can watch the file for changes.
func Load(file, envPrefix string) (*Config, *Manager, error) {
	m := NewManager()
	if file != "" {
		if err := m.LoadFromJSON(file); err != nil {
			return nil, nil, err
		}
	}
	m.LoadFromEnv(envPrefix)

	cfg := Default()
	if err := m.Apply(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, m, nil
}
