package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Port string
	Env  string
}

type ProductAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ConsoleConfig struct {
	// DefaultActor is used when the auth proxy header is absent. Empty
	// means requests without the header are rejected.
	DefaultActor   string
	ActorHeader    string
	TokenSecret    string
	SessionCookie  string
	SessionIdle    time.Duration
	ReapInterval   time.Duration
	WriteRateLimit int
	WriteWindow    time.Duration
	CORSOrigins    []string
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	NotifyTo []string

	// ConsoleURL is linked from notices so recipients can open the console.
	ConsoleURL string
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && len(m.NotifyTo) > 0
}

type Config struct {
	ServiceName string
	LogLevel    string
	Server      ServerConfig
	ProductAPI  ProductAPIConfig
	Console     ConsoleConfig
	DatabaseURL string
	AMQPURL     string
	Mail        MailConfig
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName: serviceName,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		ProductAPI: ProductAPIConfig{
			BaseURL: getEnv("PRODUCT_API_URL", "http://localhost:5000/api"),
			Timeout: getEnvAsDuration("PRODUCT_API_TIMEOUT", 10*time.Second),
		},
		Console: ConsoleConfig{
			DefaultActor:   getEnv("CONSOLE_DEFAULT_ACTOR", ""),
			ActorHeader:    getEnv("ACTOR_HEADER", "X-Forwarded-User"),
			TokenSecret:    getEnv("ACTOR_TOKEN_SECRET", ""),
			SessionCookie:  getEnv("SESSION_COOKIE", "console_session"),
			SessionIdle:    getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			ReapInterval:   getEnvAsDuration("SESSION_REAP_INTERVAL", time.Minute),
			WriteRateLimit: getEnvAsInt("WRITE_RATE_LIMIT", 30),
			WriteWindow:    getEnvAsDuration("WRITE_RATE_WINDOW", time.Minute),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AMQPURL:     getEnv("AMQP_URL", ""),
		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", ""),
			Port:     getEnvAsInt("MAIL_PORT", 587),
			User:     getEnv("MAIL_USER", ""),
			Password: getEnv("MAIL_PASS", ""),
			From:     getEnv("MAIL_FROM", "no-reply@products-cms.local"),
			NotifyTo: getEnvAsList("MAIL_NOTIFY_TO", nil),

			ConsoleURL: getEnv("CONSOLE_PUBLIC_URL", ""),
		},
	}
}

// LogFields describes the configuration without secrets.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("product_api", c.ProductAPI.BaseURL),
		zap.Duration("product_api_timeout", c.ProductAPI.Timeout),
		zap.Bool("audit_db", c.DatabaseURL != ""),
		zap.Bool("audit_broker", c.AMQPURL != ""),
		zap.Bool("mail", c.Mail.Enabled()),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
