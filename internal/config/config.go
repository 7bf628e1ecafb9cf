package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"betdesk/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Display  DisplayConfig  `mapstructure:"display"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points at the REST service serving opportunities and bets.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	Burst          int           `mapstructure:"burst"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. When DSN is set the
// records are read straight from the database instead of the REST backend.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig configures the live opportunity stream. Empty URL disables it.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Stream   string `mapstructure:"stream"`
	Group    string `mapstructure:"group"`
	Consumer string `mapstructure:"consumer"`
}

// ServerConfig governs the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	FrameInterval   time.Duration `mapstructure:"frame_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionIdleTTL  time.Duration `mapstructure:"session_idle_ttl"`
}

// RefreshConfig governs how often records are re-fetched.
type RefreshConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// DisplayConfig holds presentation parameters of the derived values.
type DisplayConfig struct {
	CarouselPageSize      int           `mapstructure:"carousel_page_size"`
	TopOpportunities      int           `mapstructure:"top_opportunities"`
	InterpolationDuration time.Duration `mapstructure:"interpolation_duration"`
	ProfitPlaces          int32         `mapstructure:"profit_places"`
	WinResult             string        `mapstructure:"win_result"`
	Timezone              string        `mapstructure:"timezone"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDays int `mapstructure:"max_days"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BETDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "betdesk")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("backend.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("backend.request_timeout", "10s")
	v.SetDefault("backend.rate_limit", 5.0)
	v.SetDefault("backend.burst", 2)
	v.SetDefault("backend.user_agent", "betdesk/1.0")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.stream", "opportunities.detected")
	v.SetDefault("redis.group", "betdesk")
	v.SetDefault("redis.consumer", "betdesk-1")

	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.frame_interval", "16ms")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.session_idle_ttl", "12h")

	v.SetDefault("refresh.interval", "1m")
	v.SetDefault("refresh.align_to_bucket", false)
	v.SetDefault("refresh.startup_delay", "0s")

	v.SetDefault("display.carousel_page_size", 3)
	v.SetDefault("display.top_opportunities", 20)
	v.SetDefault("display.interpolation_duration", "800ms")
	v.SetDefault("display.profit_places", 2)
	v.SetDefault("display.win_result", "win")
	v.SetDefault("display.timezone", "Local")

	v.SetDefault("export.max_days", 365)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" && c.Database.DSN == "" {
		return fmt.Errorf("either backend.base_url or database.dsn must be configured")
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit cannot be negative")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Display.CarouselPageSize <= 0 {
		return fmt.Errorf("display.carousel_page_size must be greater than zero")
	}
	if c.Display.InterpolationDuration < 0 {
		return fmt.Errorf("display.interpolation_duration cannot be negative")
	}
	if c.Display.ProfitPlaces < 0 || c.Display.ProfitPlaces > 8 {
		return fmt.Errorf("display.profit_places must be between 0 and 8")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Export.MaxDays <= 0 {
		return fmt.Errorf("export.max_days must be greater than zero")
	}
	if c.Redis.URL != "" && c.Redis.Stream == "" {
		return fmt.Errorf("redis.stream is required when redis.url is set")
	}
	return nil
}

// Location resolves the display timezone used for per-day grouping.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Display.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("display.timezone %q: %w", name, err)
	}
	return loc, nil
}

// ResolveMaxDays returns either the CLI override or config default.
func (c *Config) ResolveMaxDays(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDays
}
