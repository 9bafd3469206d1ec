// Package config loads churnlab settings from defaults, an optional YAML
// file, CHURNLAB_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/metrics"
)

// EnvPrefix prefixes every environment variable, e.g. CHURNLAB_STORAGE_BACKEND.
const EnvPrefix = "CHURNLAB"

// Storage backends.
const (
	BackendMemory    = "memory"
	BackendWarehouse = "warehouse"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Features FeaturesConfig `mapstructure:"features"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig selects where source tables are read from.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=memory warehouse"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Backend warehouse"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn" validate:"required_if=Backend warehouse"`
}

// InputConfig locates the raw CSV tables.
type InputConfig struct {
	ClientsPath string `mapstructure:"clients_path"`
	PricesPath  string `mapstructure:"prices_path"`
}

// OutputConfig locates written outputs.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// FeaturesConfig parameterizes feature derivation and churn tables.
type FeaturesConfig struct {
	CalendarColumns []string `mapstructure:"calendar_columns" validate:"dive,required"`
	FlagColumns     []string `mapstructure:"flag_columns" validate:"dive,required"`
	ChurnAttributes []string `mapstructure:"churn_attributes" validate:"min=1,dive,required"`
	SortByOutcome   *int     `mapstructure:"sort_by_outcome" validate:"omitempty,oneof=0 1"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// RunInterval re-runs the pipeline periodically; zero runs once at startup.
	RunInterval time.Duration `mapstructure:"run_interval" validate:"gte=0"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json console"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")

	v.SetDefault("input.clients_path", "data/client_data.csv")
	v.SetDefault("input.prices_path", "data/price_data.csv")

	v.SetDefault("output.dir", "output")

	v.SetDefault("features.calendar_columns", domain.ClientCalendarColumns)
	v.SetDefault("features.flag_columns", []string{"has_gas"})
	v.SetDefault("features.churn_attributes", metrics.DefaultAttributes)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.run_interval", time.Duration(0))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads configuration into a Config and validates it.
// An empty configFile searches for churnlab.yaml in the working directory;
// a missing default file is not an error, a missing explicit file is.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("churnlab")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default exists for this key, so AutomaticEnv alone would not reach Unmarshal.
	_ = v.BindEnv("features.sort_by_outcome")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the feature column names.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var probe domain.ClientRecord
	for _, col := range c.Features.CalendarColumns {
		if _, ok := probe.Date(col); !ok {
			return fmt.Errorf("%w: features.calendar_columns: unknown column %q", ErrInvalid, col)
		}
	}
	for _, col := range c.Features.FlagColumns {
		if _, ok := probe.Flag(col); !ok {
			return fmt.Errorf("%w: features.flag_columns: unknown column %q", ErrInvalid, col)
		}
	}
	for _, attr := range c.Features.ChurnAttributes {
		if !metrics.IsAttribute(attr) {
			return fmt.Errorf("%w: features.churn_attributes: unknown attribute %q (known: %s)",
				ErrInvalid, attr, strings.Join(metrics.Attributes(), ", "))
		}
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
