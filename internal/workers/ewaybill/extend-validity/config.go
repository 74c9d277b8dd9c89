package extendvalidity

import (
	"fmt"
	"time"

	"ewaybill-workers/internal/common/config"
)

type Config struct {
	Enabled       bool                     `mapstructure:"enabled"`
	MaxJobsActive int                      `mapstructure:"max_jobs_active"`
	Timeout       time.Duration            `mapstructure:"timeout"`
	MaxRetries    int                      `mapstructure:"max_retries"`
	Defaults      config.ExtensionDefaults `mapstructure:"defaults"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		MaxRetries:    3,
		Timeout:       30 * time.Second,
		Defaults: config.ExtensionDefaults{
			FromState:         29,
			TransDocNo:        "12",
			TransMode:         "1",
			ConsignmentStatus: "M",
		},
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
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[config.WorkerExtendValidity]; exists {
			cfg.Enabled = workerCfg.Enabled
			cfg.MaxRetries = workerCfg.MaxRetries
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
		cfg.Defaults = appConfig.EwayBill.Defaults
	}

	return cfg
}
