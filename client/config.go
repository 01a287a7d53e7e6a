package chclient

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
)

type ClientConfig struct {
	ServerAddress    string        `mapstructure:"server"`
	Interval         time.Duration `mapstructure:"interval"`
	DataDir          string        `mapstructure:"data_dir"`
	MaxPending       int           `mapstructure:"max_pending"`
	AckTimeout       time.Duration `mapstructure:"ack_timeout"`
	MaxRetryInterval time.Duration `mapstructure:"max_retry_interval"`
}

type LogConfig struct {
	LogOutput logger.LogOutput `mapstructure:"log_file"`
	LogLevel  logger.LogLevel  `mapstructure:"log_level"`
}

type Config struct {
	Client  ClientConfig `mapstructure:"client"`
	Logging LogConfig    `mapstructure:"logging"`
}

const (
	DefaultInterval = 60 * time.Second
	DefaultDataDir  = "/var/lib/nodewatch"
	// Samples are taken once per interval, so the shortest useful interval
	// is bounded by how fast CPU counters produce a meaningful average.
	minInterval = time.Second
)

func (c *Config) ParseAndValidate() error {
	if c.Client.ServerAddress == "" {
		return errors.New("client.server address is required")
	}
	if c.Client.Interval == 0 {
		c.Client.Interval = DefaultInterval
	}
	if c.Client.Interval < minInterval {
		return errors.Errorf("client.interval must be at least %s", minInterval)
	}
	if c.Client.DataDir == "" {
		c.Client.DataDir = DefaultDataDir
	}
	if c.Client.MaxPending < 0 {
		return errors.New("client.max_pending must not be negative")
	}
	return nil
}
