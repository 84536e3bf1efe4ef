package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Timezone    string            `yaml:"timezone" mapstructure:"timezone"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Aladhan     AladhanConfig     `yaml:"aladhan" mapstructure:"aladhan"`
	PrayZone    PrayZoneConfig    `yaml:"prayzone" mapstructure:"prayzone"`
	MuslimSalat MuslimSalatConfig `yaml:"muslimsalat" mapstructure:"muslimsalat"`
	Reconcile   ReconcileConfig   `yaml:"reconcile" mapstructure:"reconcile"`
	Calc        CalcConfig        `yaml:"calc" mapstructure:"calc"`
	Special     SpecialConfig     `yaml:"special" mapstructure:"special"`
	Notify      NotifyConfig      `yaml:"notify" mapstructure:"notify"`
	Geocode     GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Moon        MoonConfig        `yaml:"moon" mapstructure:"moon"`
	Resilience  ResilienceConfig  `yaml:"resilience" mapstructure:"resilience"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// StoreConfig selects the key-value substrate behind the timings cache.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres, redis
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// CacheConfig configures the timings cache.
type CacheConfig struct {
	TTLHours  int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	Precision int `yaml:"precision" mapstructure:"precision"` // decimal places of lat/lon in keys
}

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// ProvidersConfig configures provider discovery and call limits.
type ProvidersConfig struct {
	File          string  `yaml:"file" mapstructure:"file"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the per-call timeout.
func (c ProvidersConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// AladhanConfig holds AlAdhan API settings.
type AladhanConfig struct {
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	LatitudeAdjustment int    `yaml:"latitude_adjustment" mapstructure:"latitude_adjustment"`
	Tune               string `yaml:"tune" mapstructure:"tune"`
}

// PrayZoneConfig holds Pray.Zone API settings.
type PrayZoneConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MuslimSalatConfig holds MuslimSalat API settings. The provider is only
// eligible when Key is set.
type MuslimSalatConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// ReconcileConfig tunes the aggregator.
type ReconcileConfig struct {
	OutlierThresholdMinutes float64  `yaml:"outlier_threshold_minutes" mapstructure:"outlier_threshold_minutes"`
	Priority                []string `yaml:"priority" mapstructure:"priority"`
	Primary                 string   `yaml:"primary" mapstructure:"primary"`
}

// CalcConfig controls the calculation method sent to coordinate providers.
// Method <= 0 selects by region.
type CalcConfig struct {
	Method        int `yaml:"method" mapstructure:"method"`
	School        int `yaml:"school" mapstructure:"school"`
	DefaultMethod int `yaml:"default_method" mapstructure:"default_method"`
	TurkeyMethod  int `yaml:"turkey_method" mapstructure:"turkey_method"`
}

// SpecialConfig configures the special period (Ramadan) behavior.
type SpecialConfig struct {
	HijriMonth  int    `yaml:"hijri_month" mapstructure:"hijri_month"`
	LeadMinutes int    `yaml:"lead_minutes" mapstructure:"lead_minutes"`
	StartAnchor string `yaml:"start_anchor" mapstructure:"start_anchor"`
	EndAnchor   string `yaml:"end_anchor" mapstructure:"end_anchor"`
}

// Lead returns the alert window before an anchor.
func (c SpecialConfig) Lead() time.Duration {
	return time.Duration(c.LeadMinutes) * time.Minute
}

// NotifyConfig configures alert delivery.
type NotifyConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	Language   string `yaml:"language" mapstructure:"language"`
}

// GeocodeConfig configures place-name lookup.
type GeocodeConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MoonConfig configures the moon phase lookup.
type MoonConfig struct {
	IPGeoKey     string `yaml:"ipgeo_key" mapstructure:"ipgeo_key"`
	IPGeoBaseURL string `yaml:"ipgeo_base_url" mapstructure:"ipgeo_base_url"`
	FallbackURL  string `yaml:"fallback_url" mapstructure:"fallback_url"`
}

// ResilienceConfig tunes retries and circuit breakers around providers.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Location resolves the configured timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		zap.L().Warn("config: unknown timezone, using local",
			zap.String("timezone", c.Timezone),
			zap.Error(err),
		)
		return time.Local
	}
	return loc
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VAKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("timezone", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "vakit.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.precision", 3)
	v.SetDefault("providers.file", "providers.yaml")
	v.SetDefault("providers.timeout_secs", 10)
	v.SetDefault("providers.rate_per_second", 5)
	v.SetDefault("providers.user_agent", "vakit-cli/1.0")
	v.SetDefault("aladhan.base_url", "https://api.aladhan.com")
	v.SetDefault("aladhan.latitude_adjustment", 3)
	v.SetDefault("aladhan.tune", "0,0,0,0,0,0")
	v.SetDefault("prayzone.base_url", "https://api.pray.zone")
	v.SetDefault("muslimsalat.base_url", "https://muslimsalat.com")
	v.SetDefault("muslimsalat.key", "")
	v.SetDefault("reconcile.outlier_threshold_minutes", 20)
	v.SetDefault("reconcile.priority", []string{"aladhan", "prayzone", "muslimsalat"})
	v.SetDefault("reconcile.primary", "aladhan")
	v.SetDefault("calc.method", 0)
	v.SetDefault("calc.school", 1)
	v.SetDefault("calc.default_method", 3)
	v.SetDefault("calc.turkey_method", 13)
	v.SetDefault("special.hijri_month", 9)
	v.SetDefault("special.lead_minutes", 10)
	v.SetDefault("special.start_anchor", "Imsak")
	v.SetDefault("special.end_anchor", "Maghrib")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.language", "en")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("moon.ipgeo_key", "")
	v.SetDefault("moon.ipgeo_base_url", "https://api.ipgeolocation.io")
	v.SetDefault("moon.fallback_url", "https://api.phaseofthemoontoday.com/v1/current")
	v.SetDefault("resilience.max_attempts", 2)
	v.SetDefault("resilience.initial_backoff_ms", 300)
	v.SetDefault("resilience.max_backoff_ms", 3000)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 60)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is the command
// name; "serve" additionally requires a usable port.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "store.driver must be one of memory, sqlite, postgres, redis")
	}
	if c.Reconcile.OutlierThresholdMinutes < 0 {
		problems = append(problems, "reconcile.outlier_threshold_minutes must not be negative")
	}
	if c.Special.LeadMinutes <= 0 {
		problems = append(problems, "special.lead_minutes must be positive")
	}
	if c.Cache.TTLHours <= 0 {
		problems = append(problems, "cache.ttl_hours must be positive")
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be between 1 and 65535")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
