package clari

import (
	"log/slog"
	"os"

	"github.com/benbjohnson/clari/internal/logging"
	"github.com/benbjohnson/clari/internal/weakcache"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the process-scoped settings of a Factory.
type Config struct {
	// Number of cache entries above which the first stale-entry sweep runs.
	CacheGCThreshold int `yaml:"cache-gc-threshold"`

	// Minimum level logged by loggers built from this config.
	LogLevel string `yaml:"log-level"`

	// Destination of log records. A nil logger discards output.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a new instance of Config with defaults set.
func DefaultConfig() Config {
	return Config{
		CacheGCThreshold: weakcache.DefaultGCThreshold,
		LogLevel:         "info",
	}
}

// LoadConfig reads a YAML config file. Unset fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	buf, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "read config")
	}
	if err := yaml.Unmarshal(buf, &config); err != nil {
		return config, errors.Wrapf(err, "parse config %s", path)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate returns every problem with the config.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.CacheGCThreshold < 1 {
		result = multierror.Append(result, errors.Wrapf(ErrUsage, "cache-gc-threshold must be positive, got %d", c.CacheGCThreshold))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, errors.Wrap(ErrUsage, err.Error()))
	}
	return result.ErrorOrNil()
}

// logger returns the logger described by the config. Records below LogLevel
// are dropped even if the handler of Logger accepts them.
func (c Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.NewLevel(c.Logger, level)
}
