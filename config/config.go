package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/database"
	duplohttp "github.com/sagarc03/duplo/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for duplo.
type Config struct {
	Server  ServerConfig         `mapstructure:"server"`
	Storage StorageConfig        `mapstructure:"storage"`
	Cleanup CleanupConfig        `mapstructure:"cleanup"`
	Journal JournalConfig        `mapstructure:"journal"`
	Metrics MetricsConfig        `mapstructure:"metrics"`
	CORS    duplohttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr      string `mapstructure:"addr" validate:"required"`
	ChunkSize int    `mapstructure:"chunk_size" validate:"min=512"`
	PublicURL string `mapstructure:"public_url" validate:"omitempty,url"`
}

// PoolConfig holds the directory and ceilings of one pool.
type PoolConfig struct {
	Path     string `mapstructure:"path" validate:"required"`
	MaxFiles uint64 `mapstructure:"max_files" validate:"min=1"`
	MaxBytes uint64 `mapstructure:"max_bytes" validate:"min=1"`
}

// StorageConfig holds the two served pools.
type StorageConfig struct {
	Transient PoolConfig `mapstructure:"transient"`
	Permanent PoolConfig `mapstructure:"permanent"`
}

// CleanupConfig controls the expiry sweep of the transient pool.
type CleanupConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	TimeUTC  string        `mapstructure:"time_utc" validate:"required,timeofday"`
	MaxHours int           `mapstructure:"max_hours" validate:"min=0"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// MaxAge returns MaxHours as a duration.
func (c CleanupConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxHours) * time.Hour
}

// JournalConfig selects the operation journal backend.
type JournalConfig struct {
	Type        string `mapstructure:"type" validate:"required,oneof=none sqlite postgres"`
	DSN         string `mapstructure:"dsn" validate:"required_unless=Type none"`
	Table       string `mapstructure:"table" validate:"required_unless=Type none"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// Enabled reports whether a journal backend is configured.
func (j JournalConfig) Enabled() bool {
	return j.Type != "none"
}

// Database converts the journal settings to a database.Config.
func (j JournalConfig) Database() database.Config {
	return database.Config{
		Type:   j.Type,
		DSN:    j.DSN,
		Tables: duplo.Tables{Events: j.Table},
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required,startswith=/"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Env   string `mapstructure:"env" validate:"oneof=dev development prod production"`
}

// flagToViperKeys maps CLI flag names to viper configuration keys. A flag may
// set several keys; --max-files applies to both pools.
var flagToViperKeys = map[string][]string{
	"listen":           {"server.addr"},
	"transient-dir":    {"storage.transient.path"},
	"permanent-dir":    {"storage.permanent.path"},
	"max-files":        {"storage.transient.max_files", "storage.permanent.max_files"},
	"max-bytes":        {"storage.transient.max_bytes", "storage.permanent.max_bytes"},
	"cleanup-time-utc": {"cleanup.time_utc"},
	"cleanup-maxhours": {"cleanup.max_hours"},
	"journal-type":     {"journal.type"},
	"journal-dsn":      {"journal.dsn"},
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Only bind if the flag was explicitly set
		if !f.Changed {
			return
		}

		keys, ok := flagToViperKeys[f.Name]
		if !ok {
			keys = []string{f.Name}
		}

		for _, key := range keys {
			_ = v.BindPFlag(key, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5708")
	v.SetDefault("server.chunk_size", duplo.DefaultChunkSize)
	v.SetDefault("server.public_url", "")

	for _, pool := range []string{"transient", "permanent"} {
		v.SetDefault("storage."+pool+".path", "./"+pool)
		v.SetDefault("storage."+pool+".max_files", 1000)
		v.SetDefault("storage."+pool+".max_bytes", 10_000_000_000)
	}

	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.time_utc", "00:00:00")
	v.SetDefault("cleanup.max_hours", 24)
	v.SetDefault("cleanup.interval", duplo.DefaultSweepInterval)

	v.SetDefault("journal.type", "none")
	v.SetDefault("journal.dsn", "duplo.db")
	v.SetDefault("journal.table", "duplo_events")
	v.SetDefault("journal.auto_migrate", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "dev")
}

// newValidator returns a validator with the duplo-specific tags registered.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := duplo.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return validate
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("duplo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("DUPLO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	if err := newValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Journal.Enabled() {
		if err := cfg.Journal.Database().Tables.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}
