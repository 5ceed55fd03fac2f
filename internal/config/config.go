package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend drivers understood by the executor factory.
const (
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverRedis     = "redis"
	DriverSynthetic = "synthetic"
)

// BackendConfig describes one side of the comparison.
type BackendConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`

	// Synthetic driver knobs, ignored by real drivers.
	BaseLatency time.Duration `mapstructure:"base_latency"`
	Jitter      time.Duration `mapstructure:"jitter"`
	FailureRate float64       `mapstructure:"failure_rate"`
	Records     int64         `mapstructure:"records"`
}

func (b BackendConfig) validate(side string) error {
	if b.Name == "" {
		return fmt.Errorf("backend %s: name is required", side)
	}
	switch b.Driver {
	case DriverPostgres, DriverMySQL, DriverRedis:
		if b.DSN == "" {
			return fmt.Errorf("backend %s (%s): dsn is required for driver %s", side, b.Name, b.Driver)
		}
	case DriverSynthetic:
	default:
		return fmt.Errorf("backend %s (%s): unknown driver %q", side, b.Name, b.Driver)
	}
	return nil
}

// Config is the fully resolved run configuration.
type Config struct {
	BackendA BackendConfig `mapstructure:"backend_a"`
	BackendB BackendConfig `mapstructure:"backend_b"`

	// Buckets/collections to benchmark, one comparison report each.
	Targets []string `mapstructure:"targets"`

	UserCounts []int         `mapstructure:"user_counts"`
	Duration   time.Duration `mapstructure:"duration"`
	QueryType  string        `mapstructure:"query_type"`
	Statement  string        `mapstructure:"statement"`
	ThinkTime  time.Duration `mapstructure:"think_time"`

	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	SetupRetries int           `mapstructure:"setup_retries"`
	SetupBackoff time.Duration `mapstructure:"setup_backoff"`

	OutDir      string `mapstructure:"out_dir"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user_counts", []int{10, 50, 100, 200, 500, 1000})
	v.SetDefault("duration", "30s")
	v.SetDefault("query_type", "select_all")
	v.SetDefault("think_time", "100ms")
	v.SetDefault("settle_delay", "5s")
	v.SetDefault("setup_retries", 0)
	v.SetDefault("setup_backoff", "2s")
	v.SetDefault("out_dir", "reports")
	v.SetDefault("log_level", "info")
	v.SetDefault("backend_a.name", "backend-a")
	v.SetDefault("backend_b.name", "backend-b")
	v.SetDefault("backend_a.driver", DriverSynthetic)
	v.SetDefault("backend_b.driver", DriverSynthetic)
	v.SetDefault("backend_a.records", 100)
	v.SetDefault("backend_b.records", 100)
}

// Load reads the config file (explicit path, or $HOME/.pairbench.yaml
// when present), applies PAIRBENCH_* env overrides, and validates.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".pairbench")
	}

	v.SetEnvPrefix("PAIRBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing default config is fine, an explicit one is not.
		if cfgFile != "" {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.BackendA.validate("a"); err != nil {
		return err
	}
	if err := c.BackendB.validate("b"); err != nil {
		return err
	}
	if c.BackendA.Name == c.BackendB.Name {
		return fmt.Errorf("backends must have distinct names, both are %q", c.BackendA.Name)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target bucket/collection is required")
	}
	if len(c.UserCounts) == 0 {
		return fmt.Errorf("at least one user count is required")
	}
	for _, n := range c.UserCounts {
		if n <= 0 {
			return fmt.Errorf("user counts must be positive, got %d", n)
		}
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}

// ReportPath returns the artifact path for a target with the given suffix.
func (c *Config) ReportPath(target, suffix string) string {
	return filepath.Join(c.OutDir, fmt.Sprintf("%s%s", target, suffix))
}
