package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTSecret []byte

	GoogleClientID string
	FrontendURL    string
	CORSOrigins    []string

	SMTP    SMTPConfig
	Search  SearchConfig
	Storage StorageConfig

	OrderUseTx           bool
	CartEnforceOwnership bool
	NotifyTimeoutSeconds int
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("notice: .env not loaded (%v), using process environment", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		Env:         EnvDefault("APP_ENV", "development"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		FrontendURL:    strings.TrimRight(EnvDefault("FRONTEND_URL", "http://localhost:3000"), "/"),
		CORSOrigins:    CSV(EnvDefault("CORS_ORIGINS", "*")),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     EnvIntDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     EnvDefault("SMTP_FROM", "no-reply@storefront.local"),
		},
		Search: SearchConfig{
			URL:      os.Getenv("ES_URL"),
			Username: os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    EnvDefault("ES_INDEX", "products"),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    EnvDefault("S3_BUCKET", "storefront"),
			UseSSL:    EnvBoolDefault("S3_USE_SSL", false),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},

		OrderUseTx:           EnvBoolDefault("ORDER_USE_TX", true),
		CartEnforceOwnership: EnvBoolDefault("CART_ENFORCE_OWNERSHIP", true),
		NotifyTimeoutSeconds: EnvIntDefault("NOTIFY_TIMEOUT_SECONDS", 10),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
