package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Import    ImportConfig    `mapstructure:"import"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Reference ReferenceConfig `mapstructure:"reference"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded schema when set
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// StorageConfig controls the export archive
type StorageConfig struct {
	ExportDir      string `mapstructure:"export_dir"`
	ArchiveExports bool   `mapstructure:"archive_exports"`
}

// ImportConfig holds workbook import defaults
type ImportConfig struct {
	DefaultMode string `mapstructure:"default_mode"`
	// TotalTolerance is the largest stated-vs-computed total gap accepted
	// without a warning, as decimal text
	TotalTolerance string `mapstructure:"total_tolerance"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ReferenceConfig is the employee and bank directory
type ReferenceConfig struct {
	Employees []entity.Employee `mapstructure:"employees"`
	Banks     []string          `mapstructure:"banks"`
}

// Load loads configuration from file and environment variables. Values
// from a .env file in the working directory are exported first; real
// environment variables win over it.
func Load(configPath string) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 20<<20)

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/missions.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)
	v.SetDefault("database.migrations_dir", "")

	// Storage defaults
	v.SetDefault("storage.export_dir", "exports")
	v.SetDefault("storage.archive_exports", true)

	// Import defaults
	v.SetDefault("import.default_mode", "append")
	v.SetDefault("import.total_tolerance", "0.01")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.path", "MISSIONS_DB_PATH")
	_ = v.BindEnv("database.driver", "MISSIONS_DB_DRIVER")
	_ = v.BindEnv("storage.export_dir", "MISSIONS_EXPORT_DIR")
	_ = v.BindEnv("logger.level", "MISSIONS_LOG_LEVEL")
	_ = v.BindEnv("server.port", "MISSIONS_PORT")
}

// Tolerance parses TotalTolerance
func (c ImportConfig) Tolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(c.TotalTolerance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("import.total_tolerance: %w", err)
	}
	return d, nil
}

// Validate reports every problem found, not only the first
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of sqlite, memory", c.Database.Driver))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	switch strings.ToLower(c.Import.DefaultMode) {
	case "append", "replace":
	default:
		errs = append(errs, fmt.Sprintf("import.default_mode %q is not one of append, replace", c.Import.DefaultMode))
	}

	if tol, err := c.Import.Tolerance(); err != nil {
		errs = append(errs, err.Error())
	} else if tol.IsNegative() {
		errs = append(errs, "import.total_tolerance must not be negative")
	}

	if c.Storage.ArchiveExports && strings.TrimSpace(c.Storage.ExportDir) == "" {
		errs = append(errs, "storage.export_dir is required when archive_exports is on")
	}

	codes := make(map[int]bool)
	for _, e := range c.Reference.Employees {
		switch {
		case e.Code <= 0:
			errs = append(errs, fmt.Sprintf("reference employee %q has no positive code", e.Name))
		case codes[e.Code]:
			errs = append(errs, fmt.Sprintf("reference employee code %d is duplicated", e.Code))
		}
		codes[e.Code] = true
	}

	banks := make(map[string]bool)
	for _, b := range c.Reference.Banks {
		name := strings.TrimSpace(b)
		switch {
		case name == "":
			errs = append(errs, "reference bank names must not be blank")
		case banks[name]:
			errs = append(errs, fmt.Sprintf("reference bank %q is duplicated", name))
		}
		banks[name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
