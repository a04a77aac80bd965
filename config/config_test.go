package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
auth:
  jwt_secret: "unit-test-secret-0123456789"
scheduling:
  day_start: "07:30"
  timezone: "America/Santiago"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if cfg.Scheduling.DayStart != "07:30" || cfg.Scheduling.DayEnd != "20:00" {
		t.Errorf("day window = %s-%s", cfg.Scheduling.DayStart, cfg.Scheduling.DayEnd)
	}
	if cfg.Scheduling.MaxOccurrences != 1000 || cfg.Scheduling.MaxSuggestions != 3 {
		t.Errorf("scheduling defaults = %+v", cfg.Scheduling)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("access_token_ttl = %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.RateLimit.Window != time.Minute || cfg.RateLimit.Requests != 60 {
		t.Errorf("rate_limit = %+v", cfg.RateLimit)
	}
	if !cfg.Jobs.CompletionEnabled || cfg.Jobs.CompletionCron == "" {
		t.Errorf("jobs = %+v", cfg.Jobs)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "file-secret-0123456789"
db:
  host: "db.internal"
`)
	t.Setenv("AGENDA_AUTH_JWT_SECRET", "env-secret-0123456789")
	t.Setenv("AGENDA_DB_HOST", "pg.prod")
	t.Setenv("AGENDA_SCHEDULING_MAX_OCCURRENCES", "52")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret-0123456789" {
		t.Errorf("jwt_secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Host != "pg.prod" {
		t.Errorf("db.host = %q", cfg.Database.Host)
	}
	if cfg.Scheduling.MaxOccurrences != 52 {
		t.Errorf("max_occurrences = %d", cfg.Scheduling.MaxOccurrences)
	}
}

func TestLoad_SecretFromEnvOnly(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	t.Setenv("AGENDA_AUTH_JWT_SECRET", "only-env-secret-0123456789")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Auth.JWTSecret != "only-env-secret-0123456789" {
		t.Errorf("jwt_secret = %q", cfg.Auth.JWTSecret)
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef"},
		Scheduling: SchedulingConfig{
			DayStart:       "08:00",
			DayEnd:         "20:00",
			MaxOccurrences: 1000,
			Timezone:       "UTC",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"合法配置", func(c *Config) {}, ""},
		{"缺少密钥", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, "16"},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"营业开始格式错误", func(c *Config) { c.Scheduling.DayStart = "8am" }, "day_start"},
		{"营业时段倒置", func(c *Config) { c.Scheduling.DayEnd = "07:00" }, "早于"},
		{"展开上限为 0", func(c *Config) { c.Scheduling.MaxOccurrences = 0 }, "max_occurrences"},
		{"时区无效", func(c *Config) { c.Scheduling.Timezone = "Mars/Olympus" }, "timezone"},
		{"重试次数为负", func(c *Config) { c.Scheduling.LockRetries = -1 }, "lock_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable", Timezone: "UTC"}
	want := "host=h port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
