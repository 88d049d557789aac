package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup
type Config struct {
	HTTP    *HTTPConfig    `json:"http"`
	Redis   *RedisConfig   `json:"redis"`
	Auth    *AuthConfig    `json:"auth"`
	Booking *BookingConfig `json:"booking"`
	Log     *LogConfig     `json:"log"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type RedisConfig struct {
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	TxRetries  int    `json:"tx_retries"`
	SeedOnBoot bool   `json:"seed_on_boot"`
}

// AuthConfig carries the two demo accounts and the token settings.
type AuthConfig struct {
	Secret          string        `json:"secret"`
	TokenTTL        time.Duration `json:"token_ttl"`
	ParentUsername  string        `json:"parent_username"`
	ParentPassword  string        `json:"parent_password"`
	ParentStudentID string        `json:"parent_student_id"`
	AdminUsername   string        `json:"admin_username"`
	AdminPassword   string        `json:"admin_password"`
}

type BookingConfig struct {
	CancelCutoff time.Duration `json:"cancel_cutoff"`
	Timezone     string        `json:"timezone"`
}

type LogConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Redis: &RedisConfig{
			Addr:       "127.0.0.1:6379",
			DB:         8,
			TxRetries:  5,
			SeedOnBoot: true,
		},
		Auth: &AuthConfig{
			Secret:          "change-me",
			TokenTTL:        12 * time.Hour,
			ParentUsername:  "parent",
			ParentPassword:  "password123",
			ParentStudentID: "s1",
			AdminUsername:   "admin",
			AdminPassword:   "admin123",
		},
		Booking: &BookingConfig{
			CancelCutoff: 24 * time.Hour,
			Timezone:     "UTC",
		},
		Log: &LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}

	if c.Redis == nil {
		return fmt.Errorf("redis configuration is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis DB cannot be negative")
	}
	if c.Redis.TxRetries <= 0 {
		return fmt.Errorf("redis transaction retries must be positive")
	}

	if c.Auth == nil {
		return fmt.Errorf("auth configuration is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.Auth.ParentUsername == "" || c.Auth.AdminUsername == "" {
		return fmt.Errorf("parent and admin usernames are required")
	}
	if c.Auth.ParentUsername == c.Auth.AdminUsername {
		return fmt.Errorf("parent and admin usernames must differ")
	}
	if c.Auth.ParentStudentID == "" {
		return fmt.Errorf("parent student ID cannot be empty")
	}

	if c.Booking == nil {
		return fmt.Errorf("booking configuration is required")
	}
	if c.Booking.CancelCutoff < 0 {
		return fmt.Errorf("cancel cutoff cannot be negative")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Booking.Timezone, err)
	}

	if c.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}

// Location resolves Booking.Timezone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// LoadFromEnv overrides the defaults with SESSIONBOOK_* variables. A .env
// file in the working directory is loaded first when present.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	config := DefaultConfig()

	if host := os.Getenv("SESSIONBOOK_HTTP_HOST"); host != "" {
		config.HTTP.Host = host
	}
	setInt("SESSIONBOOK_HTTP_PORT", &config.HTTP.Port)
	setDuration("SESSIONBOOK_HTTP_READ_TIMEOUT", &config.HTTP.ReadTimeout)
	setDuration("SESSIONBOOK_HTTP_WRITE_TIMEOUT", &config.HTTP.WriteTimeout)

	if addr := os.Getenv("SESSIONBOOK_REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("SESSIONBOOK_REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	setInt("SESSIONBOOK_REDIS_DB", &config.Redis.DB)
	setInt("SESSIONBOOK_REDIS_TX_RETRIES", &config.Redis.TxRetries)
	if seed := os.Getenv("SESSIONBOOK_REDIS_SEED_ON_BOOT"); seed != "" {
		if b, err := strconv.ParseBool(seed); err == nil {
			config.Redis.SeedOnBoot = b
		}
	}

	if secret := os.Getenv("SESSIONBOOK_AUTH_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}
	setDuration("SESSIONBOOK_AUTH_TOKEN_TTL", &config.Auth.TokenTTL)
	if v := os.Getenv("SESSIONBOOK_PARENT_USERNAME"); v != "" {
		config.Auth.ParentUsername = v
	}
	if v := os.Getenv("SESSIONBOOK_PARENT_PASSWORD"); v != "" {
		config.Auth.ParentPassword = v
	}
	if v := os.Getenv("SESSIONBOOK_PARENT_STUDENT_ID"); v != "" {
		config.Auth.ParentStudentID = v
	}
	if v := os.Getenv("SESSIONBOOK_ADMIN_USERNAME"); v != "" {
		config.Auth.AdminUsername = v
	}
	if v := os.Getenv("SESSIONBOOK_ADMIN_PASSWORD"); v != "" {
		config.Auth.AdminPassword = v
	}

	setDuration("SESSIONBOOK_CANCEL_CUTOFF", &config.Booking.CancelCutoff)
	if tz := os.Getenv("SESSIONBOOK_TIMEZONE"); tz != "" {
		config.Booking.Timezone = tz
	}

	if level := os.Getenv("SESSIONBOOK_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if dev := os.Getenv("SESSIONBOOK_LOG_DEVELOPMENT"); dev != "" {
		if b, err := strconv.ParseBool(dev); err == nil {
			config.Log.Development = b
		}
	}

	return config
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// File mirrors Config with durations as strings ("30s", "24h").
type File struct {
	HTTP *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
	} `json:"http"`
	Redis *struct {
		Addr       string `json:"addr"`
		Password   string `json:"password"`
		DB         *int   `json:"db"`
		TxRetries  int    `json:"tx_retries"`
		SeedOnBoot *bool  `json:"seed_on_boot"`
	} `json:"redis"`
	Auth *struct {
		Secret          string `json:"secret"`
		TokenTTL        string `json:"token_ttl"`
		ParentUsername  string `json:"parent_username"`
		ParentPassword  string `json:"parent_password"`
		ParentStudentID string `json:"parent_student_id"`
		AdminUsername   string `json:"admin_username"`
		AdminPassword   string `json:"admin_password"`
	} `json:"auth"`
	Booking *struct {
		CancelCutoff string `json:"cancel_cutoff"`
		Timezone     string `json:"timezone"`
	} `json:"booking"`
	Log *struct {
		Level       string `json:"level"`
		Development *bool  `json:"development"`
	} `json:"log"`
}

// LoadFromFile applies a JSON file on top of base (defaults when nil).
func LoadFromFile(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config := base
	if config == nil {
		config = DefaultConfig()
	}

	if f := file.HTTP; f != nil {
		if f.Host != "" {
			config.HTTP.Host = f.Host
		}
		if f.Port > 0 {
			config.HTTP.Port = f.Port
		}
		if err := parseDuration(f.ReadTimeout, &config.HTTP.ReadTimeout); err != nil {
			return nil, fmt.Errorf("http.read_timeout in %s: %w", path, err)
		}
		if err := parseDuration(f.WriteTimeout, &config.HTTP.WriteTimeout); err != nil {
			return nil, fmt.Errorf("http.write_timeout in %s: %w", path, err)
		}
	}

	if f := file.Redis; f != nil {
		if f.Addr != "" {
			config.Redis.Addr = f.Addr
		}
		if f.Password != "" {
			config.Redis.Password = f.Password
		}
		if f.DB != nil {
			config.Redis.DB = *f.DB
		}
		if f.TxRetries > 0 {
			config.Redis.TxRetries = f.TxRetries
		}
		if f.SeedOnBoot != nil {
			config.Redis.SeedOnBoot = *f.SeedOnBoot
		}
	}

	if f := file.Auth; f != nil {
		if f.Secret != "" {
			config.Auth.Secret = f.Secret
		}
		if err := parseDuration(f.TokenTTL, &config.Auth.TokenTTL); err != nil {
			return nil, fmt.Errorf("auth.token_ttl in %s: %w", path, err)
		}
		if f.ParentUsername != "" {
			config.Auth.ParentUsername = f.ParentUsername
		}
		if f.ParentPassword != "" {
			config.Auth.ParentPassword = f.ParentPassword
		}
		if f.ParentStudentID != "" {
			config.Auth.ParentStudentID = f.ParentStudentID
		}
		if f.AdminUsername != "" {
			config.Auth.AdminUsername = f.AdminUsername
		}
		if f.AdminPassword != "" {
			config.Auth.AdminPassword = f.AdminPassword
		}
	}

	if f := file.Booking; f != nil {
		if err := parseDuration(f.CancelCutoff, &config.Booking.CancelCutoff); err != nil {
			return nil, fmt.Errorf("booking.cancel_cutoff in %s: %w", path, err)
		}
		if f.Timezone != "" {
			config.Booking.Timezone = f.Timezone
		}
	}

	if f := file.Log; f != nil {
		if f.Level != "" {
			config.Log.Level = f.Level
		}
		if f.Development != nil {
			config.Log.Development = *f.Development
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return config, nil
}

func parseDuration(s string, dst *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// Load builds the runtime config: defaults, then environment (and .env),
// then the JSON file at path when one is given.
func Load(path string) (*Config, error) {
	config := LoadFromEnv()
	if path != "" {
		fileConfig, err := LoadFromFile(path, config)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
