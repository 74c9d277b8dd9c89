package fetchewaybill

import (
	"fmt"
	"time"

	"ewaybill-workers/internal/common/config"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	// CacheTTL of zero disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		MaxRetries:    3,
		Timeout:       15 * time.Second,
		CacheTTL:      5 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[config.WorkerFetchEwayBill]; exists {
			cfg.Enabled = workerCfg.Enabled
			cfg.MaxRetries = workerCfg.MaxRetries
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
		if ttl := appConfig.Database.Redis.CacheTTL; ttl > 0 {
			cfg.CacheTTL = time.Duration(ttl) * time.Second
		}
	}

	return cfg
}
