package notifybatch

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

	EmailEnabled bool     `mapstructure:"email_enabled"`
	Recipients   []string `mapstructure:"recipients"`
	SMSEnabled   bool     `mapstructure:"sms_enabled"`
	AlertPhone   string   `mapstructure:"alert_phone"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		MaxRetries:    3,
		Timeout:       20 * time.Second,
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
	if c.SMSEnabled && c.AlertPhone == "" {
		return fmt.Errorf("alert_phone is required when SMS is enabled")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[config.WorkerNotifyBatch]; exists {
			cfg.Enabled = workerCfg.Enabled
			cfg.MaxRetries = workerCfg.MaxRetries
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
		n := appConfig.Notifications
		cfg.EmailEnabled = n.Email.Enabled
		cfg.Recipients = n.Email.Recipients
		cfg.SMSEnabled = n.SMS.Enabled
		cfg.AlertPhone = n.SMS.AlertPhone
	}

	return cfg
}
