package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if config.Booking.CancelCutoff != 24*time.Hour {
		t.Errorf("expected 24h cancel cutoff, got %v", config.Booking.CancelCutoff)
	}
	if config.Auth.ParentStudentID != "s1" {
		t.Errorf("expected parent bound to s1, got %q", config.Auth.ParentStudentID)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"zero retries", func(c *Config) { c.Redis.TxRetries = 0 }},
		{"empty secret", func(c *Config) { c.Auth.Secret = "" }},
		{"same usernames", func(c *Config) { c.Auth.AdminUsername = c.Auth.ParentUsername }},
		{"negative cutoff", func(c *Config) { c.Booking.CancelCutoff = -time.Hour }},
		{"unknown timezone", func(c *Config) { c.Booking.Timezone = "Mars/Olympus" }},
		{"missing log", func(c *Config) { c.Log = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SESSIONBOOK_HTTP_PORT", "9090")
	t.Setenv("SESSIONBOOK_REDIS_ADDR", "redis:6380")
	t.Setenv("SESSIONBOOK_CANCEL_CUTOFF", "48h")
	t.Setenv("SESSIONBOOK_REDIS_SEED_ON_BOOT", "false")
	t.Setenv("SESSIONBOOK_HTTP_READ_TIMEOUT", "not-a-duration")

	config := LoadFromEnv()

	if config.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", config.HTTP.Port)
	}
	if config.Redis.Addr != "redis:6380" {
		t.Errorf("expected redis:6380, got %s", config.Redis.Addr)
	}
	if config.Booking.CancelCutoff != 48*time.Hour {
		t.Errorf("expected 48h cutoff, got %v", config.Booking.CancelCutoff)
	}
	if config.Redis.SeedOnBoot {
		t.Error("expected seeding disabled")
	}
	if config.HTTP.ReadTimeout != DefaultConfig().HTTP.ReadTimeout {
		t.Errorf("bad duration should keep default, got %v", config.HTTP.ReadTimeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"http": {"port": 8181, "read_timeout": "5s"},
		"redis": {"db": 0},
		"booking": {"cancel_cutoff": "12h", "timezone": "America/New_York"},
		"log": {"level": "debug", "development": true}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path, nil)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if config.HTTP.Port != 8181 || config.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("http section not applied: %+v", config.HTTP)
	}
	if config.Redis.DB != 0 {
		t.Errorf("explicit db 0 should override default, got %d", config.Redis.DB)
	}
	if config.Booking.CancelCutoff != 12*time.Hour {
		t.Errorf("expected 12h cutoff, got %v", config.Booking.CancelCutoff)
	}
	if config.Location().String() != "America/New_York" {
		t.Errorf("expected New York location, got %s", config.Location())
	}
	if !config.Log.Development || config.Log.Level != "debug" {
		t.Errorf("log section not applied: %+v", config.Log)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"http": `), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(broken, nil); err == nil {
		t.Error("expected error for malformed JSON")
	}

	badDuration := filepath.Join(dir, "duration.json")
	if err := os.WriteFile(badDuration, []byte(`{"booking": {"cancel_cutoff": "a day"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(badDuration, nil); err == nil {
		t.Error("expected error for bad duration")
	}
}
