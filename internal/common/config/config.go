package config

import "fmt"

type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Supabase SupabaseConfig          `mapstructure:"supabase"`
	Model    ModelConfig             `mapstructure:"model"`
	Catalog  CatalogConfig           `mapstructure:"catalog"`
	Profiles ProfilesConfig          `mapstructure:"profiles"`
	Sink     SinkConfig              `mapstructure:"sink"`
	API      APIConfig               `mapstructure:"api"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	RegistryPath   string `mapstructure:"registry_path"`
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
}

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
	Index     string   `mapstructure:"index"`
}

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
}

// SupabaseConfig points at the PostgREST endpoint shared by the rest drivers.
type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	Key     string `mapstructure:"key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type ModelConfig struct {
	Path string `mapstructure:"path"`
}

type CatalogConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | elasticsearch | rest | csv
	Table        string `mapstructure:"table"`
	FallbackCSV  string `mapstructure:"fallback_csv"`
	CacheEnabled bool   `mapstructure:"cache_enabled"`
	CacheTTL     int    `mapstructure:"cache_ttl"` // seconds
}

type ProfilesConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | rest
	Table    string `mapstructure:"table"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
}

type SinkConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | rest | sns | none
	Table    string `mapstructure:"table"`
	TopicARN string `mapstructure:"topic_arn"`
	Region   string `mapstructure:"region"`
}

type APIConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	DefaultLimit int    `mapstructure:"default_limit"`
	CORSOrigins  string `mapstructure:"cors_origins"`
}

type TracingConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	Endpoint string  `mapstructure:"endpoint"`
	Sampling float64 `mapstructure:"sampling"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Drivers accepted per collaborator.
var (
	CatalogDrivers = []string{"postgres", "elasticsearch", "rest", "csv"}
	ProfileDrivers = []string{"postgres", "rest"}
	SinkDrivers    = []string{"postgres", "rest", "sns", "none"}
)

// UsesPostgres reports whether any collaborator is backed by Postgres.
func (c *Config) UsesPostgres() bool {
	return c.Catalog.Driver == "postgres" || c.Profiles.Driver == "postgres" || c.Sink.Driver == "postgres"
}

// UsesRedis reports whether a Redis cache sits in front of the catalog or profiles.
func (c *Config) UsesRedis() bool {
	return c.Catalog.CacheEnabled || (c.Profiles.Driver == "postgres" && c.Profiles.CacheTTL > 0)
}

func (c *Config) UsesSupabase() bool {
	return c.Catalog.Driver == "rest" || c.Profiles.Driver == "rest" || c.Sink.Driver == "rest"
}
