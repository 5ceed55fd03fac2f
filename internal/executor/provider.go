package executor

import (
	"fmt"
	"io"

	"pairbench/internal/config"
	"pairbench/internal/loadtest"
)

// New builds the executor provider for one backend against one target
// bucket/collection. maxConns caps SQL pools; pass the largest user
// count of the run, or 0 for unbounded.
func New(cfg config.BackendConfig, target string, maxConns int) (loadtest.ExecutorProvider, error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverMySQL:
		return NewSQLProvider(cfg.Driver, cfg.DSN, target, maxConns)
	case config.DriverRedis:
		return NewRedisProvider(cfg.DSN, target)
	case config.DriverSynthetic:
		return NewSyntheticProvider(SyntheticConfig{
			BaseLatency: cfg.BaseLatency,
			Jitter:      cfg.Jitter,
			FailureRate: cfg.FailureRate,
			Records:     cfg.Records,
		}), nil
	}
	return nil, fmt.Errorf("unknown backend driver %q", cfg.Driver)
}

// Shutdown closes a provider if its concrete type holds resources.
func Shutdown(p loadtest.ExecutorProvider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
