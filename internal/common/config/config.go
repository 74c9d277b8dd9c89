// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	EwayBill      EwayBillConfig          `mapstructure:"ewaybill"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Registry      RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the dashboard HTTP API and the /metrics endpoint.
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	// MigrationsPath is a golang-migrate source URL, e.g. file://migrations.
	MigrationsPath string `mapstructure:"migrations_path"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
	// Index holds one document per eWay Bill, refreshed by the sync job.
	Index string `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // 0 means failures are never retried
}

// EwayBillConfig is injected into the compliance API client.
type EwayBillConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Email        string `mapstructure:"email"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	IPAddress    string `mapstructure:"ip_address"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	GSTIN        string `mapstructure:"gstin"`

	Timeout        int `mapstructure:"timeout"`          // milliseconds, whole HTTP exchange
	PerCallTimeout int `mapstructure:"per_call_timeout"` // milliseconds, one bulk item; 0 disables

	Defaults ExtensionDefaults `mapstructure:"defaults"`
}

// ExtensionDefaults are the constant fields the compliance API requires on
// every extension request.
type ExtensionDefaults struct {
	FromState         int    `mapstructure:"from_state"`
	TransDocNo        string `mapstructure:"trans_doc_no"`
	TransMode         string `mapstructure:"trans_mode"`
	ConsignmentStatus string `mapstructure:"consignment_status"`
	TransitType       string `mapstructure:"transit_type"`
	AddressLine1      string `mapstructure:"address_line1"`
	AddressLine2      string `mapstructure:"address_line2"`
	AddressLine3      string `mapstructure:"address_line3"`
}

// NotificationConfig holds settings for the batch notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled    bool     `mapstructure:"enabled"`
		FromEmail  string   `mapstructure:"from_email"`
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled    bool   `mapstructure:"enabled"`
		AlertPhone string `mapstructure:"alert_phone"`
		SenderID   string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RegistryConfig points at the activity registry the worker manager checks
// enabled task types against.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
