package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Store    StoreConfig      `mapstructure:"store"`
	Notifier NotifierConfig   `mapstructure:"notifier"`
	Roles    []RoleAssignment `mapstructure:"roles"`
	Logger   LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BaseURL      string        `mapstructure:"base_url"`
	Organization string        `mapstructure:"organization"`
}

// StoreConfig holds key-value store configuration
type StoreConfig struct {
	Driver            string        `mapstructure:"driver"`
	Path              string        `mapstructure:"path"`
	MaxOpenConns      int           `mapstructure:"max_open_conns"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `mapstructure:"conn_max_lifetime"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	RedisPoolSize     int           `mapstructure:"redis_pool_size"`
	KeyPrefix         string        `mapstructure:"key_prefix"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	LockRetryInterval time.Duration `mapstructure:"lock_retry_interval"`
	LockRetries       int           `mapstructure:"lock_retries"`
	UpdateAttempts    int           `mapstructure:"update_attempts"`
	UpdateBackoff     time.Duration `mapstructure:"update_backoff"`
}

// NotifierConfig holds notification transport configuration
type NotifierConfig struct {
	Driver    string `mapstructure:"driver"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// RoleAssignment grants roles to one address. Listed rather than keyed by
// address because viper splits map keys on dots.
type RoleAssignment struct {
	Email string   `mapstructure:"email"`
	Roles []string `mapstructure:"roles"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// LoadDotEnv loads variables from path into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
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
	v.SetDefault("server.base_url", "http://localhost:8080")

	// Store defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/funding.db")
	v.SetDefault("store.max_open_conns", 25)
	v.SetDefault("store.max_idle_conns", 5)
	v.SetDefault("store.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("store.key_prefix", "funding:")
	v.SetDefault("store.lock_ttl", 5*time.Second)
	v.SetDefault("store.lock_retry_interval", 10*time.Millisecond)
	v.SetDefault("store.lock_retries", 20)
	v.SetDefault("store.update_attempts", 8)
	v.SetDefault("store.update_backoff", 2*time.Millisecond)

	// Notifier defaults
	v.SetDefault("notifier.driver", "console")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"server.base_url":      "BASE_URL",
		"store.path":           "DATABASE_PATH",
		"store.redis_addr":     "REDIS_ADDR",
		"store.redis_password": "REDIS_PASSWORD",
		"notifier.app_id":      "LARK_APP_ID",
		"notifier.app_secret":  "LARK_APP_SECRET",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("store.driver must be sqlite, redis or memory, got %q", c.Store.Driver)
	}
	if c.Store.Driver == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("store.redis_addr is required for the redis driver")
	}

	switch c.Notifier.Driver {
	case "console":
	case "lark":
		if c.Notifier.AppID == "" {
			return fmt.Errorf("notifier.app_id is required for the lark driver")
		}
		if c.Notifier.AppSecret == "" {
			return fmt.Errorf("notifier.app_secret is required for the lark driver")
		}
	default:
		return fmt.Errorf("notifier.driver must be console or lark, got %q", c.Notifier.Driver)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	for i, ra := range c.Roles {
		if ra.Email == "" {
			return fmt.Errorf("roles[%d].email is required", i)
		}
		for _, role := range ra.Roles {
			switch role {
			case "requester", "approver", "disburser":
			default:
				return fmt.Errorf("roles[%d]: unknown role %q", i, role)
			}
		}
	}

	return nil
}
