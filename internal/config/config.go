package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Placeholder values shipped in the example .env. Credentials left at these
// values are treated as absent: the signature check runs in unverified mode
// and outbound delivery is simulated.
const (
	PlaceholderAccessToken = "YOUR_ACCESS_TOKEN"
	PlaceholderAppSecret   = "YOUR_APP_SECRET"
)

const defaultReplyRules = "Anda adalah asisten AI yang ramah. Jawab pertanyaan dengan singkat dan jelas. Jika Anda tidak tahu jawabannya, katakan Anda akan mencarinya."

// Config contains all runtime settings for the webhook service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// Webhook handshake and request authentication.
	VerifyToken string
	AppSecret   string

	// WhatsApp Graph API delivery.
	PhoneNumberID   string
	AccessToken     string
	GraphAPIVersion string
	GraphAPIBaseURL string

	// Reply generation.
	BrainMode    string
	BrainHTTPURL string
	BrainAPIKey  string
	BrainModel   string
	BrainTimeout time.Duration
	ReplyRules   string

	SmartReplyCount int
	HistoryLimit    int

	// Conversation persistence.
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
	RedisTTL    time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "waresponder"),
		AllowAnyOrigin:   false,
		VerifyToken:      stringsTrimSpace("WHATSAPP_VERIFY_TOKEN"),
		AppSecret:        stringsTrimSpace("WHATSAPP_APP_SECRET"),
		PhoneNumberID:    stringsTrimSpace("WHATSAPP_PHONE_NUMBER_ID"),
		AccessToken:      stringsTrimSpace("WHATSAPP_ACCESS_TOKEN"),
		GraphAPIVersion:  envOrDefault("WHATSAPP_API_VERSION", "v20.0"),
		GraphAPIBaseURL:  envOrDefault("WHATSAPP_API_BASE_URL", "https://graph.facebook.com"),
		BrainMode:        envOrDefault("BRAIN_MODE", "auto"),
		BrainHTTPURL:     stringsTrimSpace("BRAIN_HTTP_URL"),
		BrainAPIKey:      stringsTrimSpace("BRAIN_API_KEY"),
		BrainModel:       envOrDefault("BRAIN_MODEL", "gemini-2.0-flash"),
		ReplyRules:       envOrDefault("REPLY_RULES", defaultReplyRules),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		RedisAddr:        stringsTrimSpace("REDIS_ADDR"),
		BrainTimeout:     30 * time.Second,
		ShutdownTimeout:  15 * time.Second,
		RedisTTL:         5 * time.Minute,
		SmartReplyCount:  3,
		HistoryLimit:     50,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainTimeout, err = durationFromEnv("BRAIN_TIMEOUT", cfg.BrainTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisTTL, err = durationFromEnv("REDIS_TTL", cfg.RedisTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB, err = intFromEnv("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return Config{}, err
	}
	cfg.SmartReplyCount, err = intFromEnv("SMART_REPLY_COUNT", cfg.SmartReplyCount)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.VerifyToken == "" {
		return Config{}, fmt.Errorf("WHATSAPP_VERIFY_TOKEN is required")
	}
	if cfg.SmartReplyCount <= 0 {
		return Config{}, fmt.Errorf("SMART_REPLY_COUNT must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if cfg.RedisDB < 0 {
		return Config{}, fmt.Errorf("REDIS_DB must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.BrainMode)) {
	case "auto", "http", "mock":
	default:
		return Config{}, fmt.Errorf("invalid BRAIN_MODE: %q (expected auto|http|mock)", cfg.BrainMode)
	}

	return cfg, nil
}

// SignatureEnforced reports whether inbound webhook signatures are checked
// against a real app secret.
func (c Config) SignatureEnforced() bool {
	return c.AppSecret != "" && c.AppSecret != PlaceholderAppSecret
}

// DeliveryConfigured reports whether outbound sends hit the real Graph API.
func (c Config) DeliveryConfigured() bool {
	return c.PhoneNumberID != "" && c.AccessToken != "" && c.AccessToken != PlaceholderAccessToken
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s parse error: invalid bool %q", key, v)
}
