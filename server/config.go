package chserver

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
)

type ServerConfig struct {
	ListenAddress string        `mapstructure:"address"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	AsyncWrites   bool          `mapstructure:"async_writes"`
	QueueSize     int           `mapstructure:"queue_size"`
}

type APIConfig struct {
	// Address the HTTP API listens on, empty disables the API.
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	WALEnabled bool   `mapstructure:"wal"`
}

type MonitoringConfig struct {
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LogConfig struct {
	LogOutput logger.LogOutput `mapstructure:"log_file"`
	LogLevel  logger.LogLevel  `mapstructure:"log_level"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	API        APIConfig        `mapstructure:"api"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LogConfig        `mapstructure:"logging"`
}

const (
	DefaultListenAddress   = "0.0.0.0:9004"
	DefaultDatabasePath    = "nodewatch.db"
	DefaultRetention       = 30 * 24 * time.Hour
	DefaultCleanupInterval = time.Hour
)

func (c *Config) ParseAndValidate() error {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = DefaultListenAddress
	}
	if c.Server.IdleTimeout < 0 {
		return errors.New("server.idle_timeout must not be negative")
	}
	if c.Server.QueueSize == 0 {
		c.Server.QueueSize = 10000
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Monitoring.Retention == 0 {
		c.Monitoring.Retention = DefaultRetention
	}
	if c.Monitoring.Retention < 0 {
		return errors.New("monitoring.retention must be positive")
	}
	if c.Monitoring.CleanupInterval == 0 {
		c.Monitoring.CleanupInterval = DefaultCleanupInterval
	}
	return nil
}
