package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the authentication service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	JWTSecret string

	AdminBootstrapCode string
	DefaultRole        string
	ClientURL          string

	BcryptCost int

	TokenTTL          time.Duration
	FederatedTokenTTL time.Duration
	OTPTTL            time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration

	OIDCGoogleIssuerURL    string
	OIDCGoogleClientID     string
	OIDCGoogleClientSecret string
	OIDCGoogleScopes       []string
	OIDCHTTPTimeout        time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Mail struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"mail"`
	OIDC struct {
		Google struct {
			IssuerURL    string   `yaml:"issuer_url"`
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			Scopes       []string `yaml:"scopes"`
		} `yaml:"google"`
	} `yaml:"oidc"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:           "auth-service",
		HTTPPort:            8080,
		DefaultRole:         "user",
		ClientURL:           "http://localhost:3000",
		BcryptCost:          10,
		TokenTTL:            24 * time.Hour,
		FederatedTokenTTL:   7 * 24 * time.Hour,
		OTPTTL:              10 * time.Minute,
		SMTPPort:            587,
		SMTPTimeout:         10 * time.Second,
		OIDCGoogleIssuerURL: "https://accounts.google.com",
		OIDCGoogleScopes:    []string{"openid", "email", "profile"},
		OIDCHTTPTimeout:     8 * time.Second,
		MaxDBConns:          20,
		OutboxPollInterval:  2 * time.Second,
		OutboxBatchSize:     100,
		OutboxClaimTTL:      30 * time.Second,
		OutboxMaxRetries:    5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Mail.Host != "" {
			cfg.SMTPHost = f.Mail.Host
		}
		if f.Mail.Port > 0 {
			cfg.SMTPPort = f.Mail.Port
		}
		if f.Mail.From != "" {
			cfg.SMTPFrom = f.Mail.From
		}
		if f.Mail.Username != "" {
			cfg.SMTPUsername = f.Mail.Username
		}
		if f.Mail.Password != "" {
			cfg.SMTPPassword = f.Mail.Password
		}
		if f.OIDC.Google.IssuerURL != "" {
			cfg.OIDCGoogleIssuerURL = f.OIDC.Google.IssuerURL
		}
		if f.OIDC.Google.ClientID != "" {
			cfg.OIDCGoogleClientID = f.OIDC.Google.ClientID
		}
		if f.OIDC.Google.ClientSecret != "" {
			cfg.OIDCGoogleClientSecret = f.OIDC.Google.ClientSecret
		}
		if len(f.OIDC.Google.Scopes) > 0 {
			cfg.OIDCGoogleScopes = f.OIDC.Google.Scopes
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.AdminBootstrapCode = envOrDefault("ADMIN_BOOTSTRAP_CODE", cfg.AdminBootstrapCode)
	cfg.DefaultRole = strings.ToLower(strings.TrimSpace(envOrDefault("DEFAULT_ROLE", cfg.DefaultRole)))
	cfg.ClientURL = envOrDefault("CLIENT_URL", cfg.ClientURL)
	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)
	cfg.SMTPUsername = envOrDefault("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.OIDCGoogleIssuerURL = envOrDefault("OIDC_GOOGLE_ISSUER_URL", cfg.OIDCGoogleIssuerURL)
	cfg.OIDCGoogleClientID = envOrDefault("OIDC_GOOGLE_CLIENT_ID", cfg.OIDCGoogleClientID)
	cfg.OIDCGoogleClientSecret = envOrDefault("OIDC_GOOGLE_CLIENT_SECRET", cfg.OIDCGoogleClientSecret)
	cfg.OIDCGoogleScopes = envCSV("OIDC_GOOGLE_SCOPES", cfg.OIDCGoogleScopes)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL.Hours()))) * time.Hour
	cfg.FederatedTokenTTL = time.Duration(envInt("FEDERATED_TOKEN_EXPIRY_HOURS", int(cfg.FederatedTokenTTL.Hours()))) * time.Hour
	cfg.OTPTTL = time.Duration(envInt("OTP_TTL_MINUTES", int(cfg.OTPTTL.Minutes()))) * time.Minute
	cfg.SMTPTimeout = time.Duration(envInt("SMTP_TIMEOUT_SECONDS", int(cfg.SMTPTimeout.Seconds()))) * time.Second
	cfg.OIDCHTTPTimeout = time.Duration(envInt("OIDC_HTTP_TIMEOUT_SECONDS", int(cfg.OIDCHTTPTimeout.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
