package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/inviteforge/inviteforge/internal/auth"
)

// Config represents the runtime configuration for the InviteForge backend.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Render     RenderConfig     `mapstructure:"render"`
	Security   SecurityConfig   `mapstructure:"security"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// PublicURL is the externally reachable base URL used when constructing
	// image links, e.g. "https://invites.example.com".
	PublicURL string `mapstructure:"public_url"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT   JWTSettings   `mapstructure:"jwt"`
	Local LocalSettings `mapstructure:"local"`
	Admin AdminSeed     `mapstructure:"admin"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// LocalSettings defines controls for the local auth provider.
type LocalSettings struct {
	BCryptCost        int  `mapstructure:"bcrypt_cost"`
	AllowRegistration bool `mapstructure:"allow_registration"`
}

// AdminSeed describes the administrator account created on first boot.
type AdminSeed struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// StorageConfig controls where rendered invite images are written.
type StorageConfig struct {
	// Dir is the local directory receiving rendered PNG files.
	Dir string `mapstructure:"dir"`
}

// RenderConfig tunes the invite rendering pipeline.
type RenderConfig struct {
	// MaxConcurrent bounds simultaneous in-flight renders; compositing is
	// CPU-bound and unbounded concurrency risks resource exhaustion.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// FetchInsecureSkipVerify disables TLS verification on remote image
	// fetches. Sandbox/test use only; never enable in production.
	FetchInsecureSkipVerify bool `mapstructure:"fetch_insecure_skip_verify"`
}

// SecurityConfig tunes the request hardening middleware.
type SecurityConfig struct {
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute"`
	RequestScanning    bool  `mapstructure:"request_scanning"`
	MaxBodyBytes       int64 `mapstructure:"max_body_bytes"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("INVITEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Defaults plus environment variables are a valid configuration.
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.public_url", "http://localhost:8080")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/inviteforge.db")

	v.SetDefault("auth.jwt.issuer", "inviteforge")
	v.SetDefault("auth.jwt.access_token_ttl", 24*time.Hour)
	v.SetDefault("auth.local.bcrypt_cost", 12)
	v.SetDefault("auth.local.allow_registration", true)

	v.SetDefault("storage.dir", "data/generated_images")

	v.SetDefault("render.max_concurrent", 4)
	v.SetDefault("render.fetch_timeout", 10*time.Second)
	v.SetDefault("render.fetch_insecure_skip_verify", false)

	v.SetDefault("security.rate_limit_per_minute", 30)
	v.SetDefault("security.request_scanning", true)
	v.SetDefault("security.max_body_bytes", int64(10*1024*1024))

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
}

// JWTServiceConfig converts the auth settings into the auth package config.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
}
