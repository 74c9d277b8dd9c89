package searchexpiring

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
	Index         string        `mapstructure:"index"`
	DefaultSize   int           `mapstructure:"default_size"`
	MaxSize       int           `mapstructure:"max_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		MaxRetries:    3,
		Timeout:       10 * time.Second,
		Index:         "ewaybills",
		DefaultSize:   100,
		MaxSize:       500,
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
	if c.Index == "" {
		return fmt.Errorf("index is required")
	}
	if c.DefaultSize <= 0 || c.MaxSize < c.DefaultSize {
		return fmt.Errorf("default_size must be positive and not exceed max_size")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[config.WorkerSearchExpiring]; exists {
			cfg.Enabled = workerCfg.Enabled
			cfg.MaxRetries = workerCfg.MaxRetries
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
		if idx := appConfig.Database.Elasticsearch.Index; idx != "" {
			cfg.Index = idx
		}
	}

	return cfg
}
