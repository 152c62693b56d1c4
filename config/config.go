package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL        time.Duration
	SessionCookie     string
	KeepAliveInterval time.Duration
	NotificationLimit int64

	ResetTokenSecret string
	ResetTokenTTL    time.Duration
	AppBaseURL       string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	SMSAPIURL   string
	SMSUsername string
	SMSPassword string
	SMSSenderID string

	CORSAllowedOrigins []string
}

// IsProduction reports whether secure cookies and JSON logs are in effect.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load reads the configuration from environment variables. Call godotenv.Load
// first if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DBName:           getEnv("DB_NAME", "carrental"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		SessionCookie:    getEnv("SESSION_COOKIE", "session"),
		ResetTokenSecret: os.Getenv("RESET_TOKEN_SECRET"),
		AppBaseURL:       strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		SMTPFrom:         os.Getenv("SMTP_FROM"),
		SMSAPIURL:        os.Getenv("SMS_API_URL"),
		SMSUsername:      os.Getenv("SMS_USERNAME"),
		SMSPassword:      os.Getenv("SMS_PASSWORD"),
		SMSSenderID:      getEnv("SMS_SENDER_ID", "CarRental"),
	}

	// Check both MONGO_URI and MONGODB_URI
	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		cfg.MongoURI = os.Getenv("MONGODB_URI")
	}
	if cfg.MongoURI == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
		cfg.MongoURI = "mongodb://localhost:27017"
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	limit, err := getInt("NOTIFICATION_LIMIT", 30)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("NOTIFICATION_LIMIT must be positive")
	}
	cfg.NotificationLimit = int64(limit)

	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.KeepAliveInterval, err = getDuration("REALTIME_KEEPALIVE", 25*time.Second); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = getDuration("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}

	if cfg.ResetTokenSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("RESET_TOKEN_SECRET environment variable is required for production")
		}
		cfg.ResetTokenSecret = "dev-reset-token-secret"
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
