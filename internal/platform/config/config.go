package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EmailProviderNone = "none"
	EmailProviderSMTP = "smtp"
	EmailProviderHTTP = "http"
)

type Config struct {
	Addr                  string
	DatabaseURL           string
	JWTSecret             string
	DataEncryptionKey     string
	Environment           string
	SeedTenantName        string
	SeedAdminEmail        string
	SeedAdminPassword     string
	SeedStatutoryTables   bool
	EmailFrom             string
	EmailProvider         string
	EmailAPIURL           string
	EmailAPIKey           string
	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPassword          string
	SMTPUseTLS            bool
	PublicBaseURL         string
	AIGatewayURL          string
	AIGatewayKey          string
	AIModel               string
	AIRatePerMinute       int
	AITimeout             time.Duration
	CORSAllowedOrigins    []string
	RedisURL              string
	CacheTTL              time.Duration
	KafkaBrokers          []string
	KafkaTopic            string
	ReminderSchedule      string
	VacationGrantSchedule string
	StatutoryTablesDir    string
	RunMigrations         bool
	RunSeed               bool
	MaxBodyBytes          int64
	RateLimitPerMinute    int
	MetricsEnabled        bool
	ImportMaxRows         int
}

// Load reads an optional env file first; variables already set in the
// process environment win over the file.
func Load() Config {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env file %s ignored: %v\n", envFile, err)
	}

	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		DataEncryptionKey:     getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:           getEnv("APP_ENV", "development"),
		SeedTenantName:        getEnv("SEED_TENANT_NAME", "Default Tenant"),
		SeedAdminEmail:        getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:     getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedStatutoryTables:   getEnvBool("SEED_STATUTORY_TABLES", true),
		EmailFrom:             getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailProvider:         strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderNone)),
		EmailAPIURL:           getEnv("EMAIL_API_URL", ""),
		EmailAPIKey:           getEnv("EMAIL_API_KEY", ""),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:            getEnvBool("SMTP_USE_TLS", true),
		PublicBaseURL:         getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		AIGatewayURL:          getEnv("AI_GATEWAY_URL", ""),
		AIGatewayKey:          getEnv("AI_GATEWAY_KEY", ""),
		AIModel:               getEnv("AI_MODEL", "gpt-4o-mini"),
		AIRatePerMinute:       getEnvInt("AI_RATE_PER_MINUTE", 20),
		AITimeout:             getEnvDuration("AI_TIMEOUT", 30*time.Second),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RedisURL:              getEnv("REDIS_URL", ""),
		CacheTTL:              getEnvDuration("CACHE_TTL", time.Hour),
		KafkaBrokers:          getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "hris.events"),
		ReminderSchedule:      getEnv("REMINDER_SCHEDULE", "0 8 * * *"),
		VacationGrantSchedule: getEnv("VACATION_GRANT_SCHEDULE", "30 0 * * *"),
		StatutoryTablesDir:    getEnv("STATUTORY_TABLES_DIR", ""),
		RunMigrations:         getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:               getEnvBool("RUN_SEED", true),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 5<<20)),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
		ImportMaxRows:         getEnvInt("IMPORT_MAX_ROWS", 1000),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.AIRatePerMinute <= 0 {
		return fmt.Errorf("AI_RATE_PER_MINUTE must be positive")
	}
	if c.ImportMaxRows <= 0 {
		return fmt.Errorf("IMPORT_MAX_ROWS must be positive")
	}
	switch c.EmailProvider {
	case EmailProviderNone:
	case EmailProviderSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST must be set when EMAIL_PROVIDER is smtp")
		}
	case EmailProviderHTTP:
		if c.EmailAPIURL == "" || c.EmailAPIKey == "" {
			return fmt.Errorf("EMAIL_API_URL and EMAIL_API_KEY must be set when EMAIL_PROVIDER is http")
		}
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be one of none, smtp, http")
	}
	return nil
}
