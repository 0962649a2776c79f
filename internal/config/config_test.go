package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("storage backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.AI.ChatModel != "gemini-2.5-flash" {
		t.Errorf("chat model = %q", cfg.AI.ChatModel)
	}
}

func TestLoad_EnvironmentAndAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GEMINI_API_KEY", "key-1")
	t.Setenv("WORKERS_REMINDER_LEAD", "2h")
	t.Setenv("HTTP_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://u:p@localhost/db" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.AI.GeminiAPIKey != "key-1" {
		t.Errorf("gemini key = %q", cfg.AI.GeminiAPIKey)
	}
	if cfg.Workers.ReminderLead != 2*time.Hour {
		t.Errorf("reminder lead = %v", cfg.Workers.ReminderLead)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 {
		t.Errorf("cors origins = %v", cfg.HTTP.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	if err := flags.Parse([]string{"--port", "9100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(flags, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.HTTP.Port)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "internconnect.yaml")
	body := "storage:\n  backend: gcs\n  bucket: resumes\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != "gcs" || cfg.Storage.Bucket != "resumes" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.HTTP.TrustedProxies) != 0 {
		t.Errorf("default trusted proxies = %v, want none", cfg.HTTP.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.1,172.16.0.0/12")
	cfg, err = Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.HTTP.TrustedProxies) != 2 || cfg.HTTP.TrustedProxies[1] != "172.16.0.0/12" {
		t.Errorf("trusted proxies = %v", cfg.HTTP.TrustedProxies)
	}
}

func TestValidate_RejectsBadTrustedProxy(t *testing.T) {
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Database.URL = "postgres://localhost/db"
	cfg.Auth.JWTSecret = "s3cret"
	cfg.HTTP.TrustedProxies = []string{"10.0.0.1", "load-balancer"}

	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), `invalid trusted proxy "load-balancer"`) {
		t.Fatalf("Validate = %v", err)
	}
}

func TestValidate_ReportsMissingSettings(t *testing.T) {
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Storage.Backend = "s3"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_SECRET", "unknown storage backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
