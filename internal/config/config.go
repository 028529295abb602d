package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/dshills/tabsync/internal/crawler"
	"github.com/dshills/tabsync/internal/fingerprint"
	"github.com/dshills/tabsync/internal/storage"
)

// Config holds all configuration for tabsync.
// Configuration can come from a YAML or .env file or from environment
// variables; environment variables always override file values.
// Secrets (database password) must only come from environment variables.
type Config struct {
	// Directory crawled when no root is given on the command line
	RootDirectory string `yaml:"root_directory" env:"ROOT_DIRECTORY" env-default:"."`

	// Translation map lookup
	MappingDirectory   string `yaml:"mapping_directory" env:"PATH_MAPPING" env-default:""`
	MappingFileName    string `yaml:"mapping_file_name" env:"MAPPING_FILE_NAME" env-default:"field_translation.json"`
	DefaultMappingPath string `yaml:"default_mapping_path" env:"DEFAULT_MAPPING_PATH" env-default:""`

	// Pipeline switches
	ApplyFilters    bool `yaml:"apply_filters" env:"APPLY_FILTERS" env-default:"false"`
	UpdateDatabase  bool `yaml:"update_database" env:"UPDATE_DB" env-default:"true"`
	DetectByContent bool `yaml:"detect_by_content" env:"DETECT_BY_CONTENT" env-default:"true"`

	// Content fingerprinting
	FingerprintAlgorithm string `yaml:"fingerprint_algorithm" env:"FINGERPRINT_ALGORITHM" env-default:"highway128"`
	FingerprintCacheSize int    `yaml:"fingerprint_cache_size" env:"FINGERPRINT_CACHE_SIZE" env-default:"64"`

	// Name of the ledger table in the default schema
	LedgerTable string `yaml:"ledger_table" env:"LEDGER_TABLE" env-default:"Files_Meta_Data"`

	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds the storage connection settings.
// DSN, when set, wins over the discrete fields.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN                    string `yaml:"-" env:"CONN_STR"` // Secret - may embed credentials
	Path                   string `yaml:"path" env:"DB_PATH" env-default:"tabsync.db"`
	Host                   string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port                   int    `yaml:"port" env:"DB_PORT" env-default:"0"`
	User                   string `yaml:"user" env:"DB_USER" env-default:""`
	Password               string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Name                   string `yaml:"name" env:"DB_NAME" env-default:""`
	Encrypt                bool   `yaml:"encrypt" env:"DB_ENCRYPT" env-default:"false"`
	TrustServerCertificate bool   `yaml:"trust_server_certificate" env:"DB_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectionTimeout      int    `yaml:"connection_timeout" env:"DB_CONNECTION_TIMEOUT" env-default:"30"`
	SSLMode                string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from path, when given, with environment
// variable overrides, or from the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case storage.DriverSQLite, storage.DriverSQLServer, storage.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch fingerprint.Algorithm(c.FingerprintAlgorithm) {
	case fingerprint.Highway128, fingerprint.MD5:
	default:
		return fmt.Errorf("unsupported fingerprint algorithm %q", c.FingerprintAlgorithm)
	}

	if c.FingerprintCacheSize < 0 {
		return fmt.Errorf("fingerprint cache size must not be negative")
	}
	if c.LedgerTable == "" {
		return fmt.Errorf("ledger table name must not be empty")
	}
	return nil
}

// Storage returns the storage connection settings. For SQLite the DSN
// falls back to the database file path.
func (c *Config) Storage() storage.Config {
	db := c.Database
	dsn := db.DSN
	if dsn == "" && db.Driver == storage.DriverSQLite {
		dsn = db.Path
	}
	return storage.Config{
		Driver:                 db.Driver,
		DSN:                    dsn,
		Host:                   db.Host,
		Port:                   db.Port,
		User:                   db.User,
		Password:               db.Password,
		Database:               db.Name,
		Encrypt:                db.Encrypt,
		TrustServerCertificate: db.TrustServerCertificate,
		ConnectionTimeout:      db.ConnectionTimeout,
		SSLMode:                db.SSLMode,
	}
}

// Crawler returns the per-crawl settings
func (c *Config) Crawler() *crawler.Config {
	return &crawler.Config{
		MappingDirectory:     c.MappingDirectory,
		MappingFileName:      c.MappingFileName,
		DefaultMappingPath:   c.DefaultMappingPath,
		ApplyFilters:         c.ApplyFilters,
		UpdateDatabase:       c.UpdateDatabase,
		DetectByContent:      c.DetectByContent,
		FingerprintAlgorithm: fingerprint.Algorithm(c.FingerprintAlgorithm),
		FingerprintCacheSize: c.FingerprintCacheSize,
		LedgerTable:          c.LedgerTable,
	}
}
