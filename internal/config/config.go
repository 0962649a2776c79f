package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	PublicBaseURL string `mapstructure:"public_base_url"`

	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	AI       AIConfig       `mapstructure:"ai"`
	Mail     MailConfig     `mapstructure:"mail"`
	Workers  WorkersConfig  `mapstructure:"workers"`
}

type HTTPConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type StorageConfig struct {
	Backend         string        `mapstructure:"backend"`
	LocalDir        string        `mapstructure:"local_dir"`
	Bucket          string        `mapstructure:"bucket"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	SigningKey      string        `mapstructure:"signing_key"`
	URLTTL          time.Duration `mapstructure:"url_ttl"`
}

type AIConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	ChatModel      string `mapstructure:"chat_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type MailConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	Sender          string `mapstructure:"sender"`
}

type WorkersConfig struct {
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	ReminderLead     time.Duration `mapstructure:"reminder_lead"`
	MatchInterval    time.Duration `mapstructure:"match_interval"`
}

// Defaults registers every key so AutomaticEnv can see it during Unmarshal.
var Defaults = map[string]any{
	"public_base_url":            "http://localhost:8080",
	"http.port":                  8080,
	"http.cors_origins":          []string{},
	"http.trusted_proxies":       []string{},
	"log.level":                  "info",
	"database.url":               "",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    10,
	"database.conn_max_lifetime": 30 * time.Minute,
	"auth.jwt_secret":            "",
	"auth.token_ttl":             24 * time.Hour,
	"auth.cookie_secure":         false,
	"redis.url":                  "",
	"storage.backend":            "local",
	"storage.local_dir":          "./uploads",
	"storage.bucket":             "",
	"storage.credentials_file":   "",
	"storage.signing_key":        "",
	"storage.url_ttl":            15 * time.Minute,
	"ai.gemini_api_key":          "",
	"ai.chat_model":              "gemini-2.5-flash",
	"ai.embedding_model":         "text-embedding-004",
	"mail.credentials_file":      "credential.json",
	"mail.token_file":            "token.json",
	"mail.sender":                "",
	"workers.reminder_interval":  5 * time.Minute,
	"workers.reminder_lead":      24 * time.Hour,
	"workers.match_interval":     30 * time.Minute,
}

// envAliases are the short names used in deployment .env files.
var envAliases = map[string][]string{
	"database.url":         {"DATABASE_URL"},
	"auth.jwt_secret":      {"JWT_SECRET"},
	"redis.url":            {"REDIS_URL"},
	"ai.gemini_api_key":    {"GEMINI_API_KEY"},
	"http.port":            {"PORT"},
	"http.trusted_proxies": {"TRUSTED_PROXIES"},
}

var flagKeys = map[string]string{
	"port":      "http.port",
	"log-level": "log.level",
}

// Load merges defaults, an optional YAML file, the .env file, the process
// environment and command line flags, in increasing precedence.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return cfg, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return cfg, err
				}
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid http port %d", c.HTTP.Port))
	}
	for _, proxy := range c.HTTP.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("invalid trusted proxy %q", proxy))
			}
		}
	}
	switch c.Storage.Backend {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required for the gcs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
