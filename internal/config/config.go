// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iyunix/fios-chat/internal/domain"
)

type Config struct {
	ServerPort     string
	DatabasePath   string
	StorageKey     string
	LogLevel       string
	LogFile        string
	SimulatedDelay time.Duration
	WebhookTimeout time.Duration
	WebhooksFile   string
	Webhooks       map[domain.Category]WebhookOverride
	OpenAIAPIKey   string
	SendRateLimit  int // sends per minute per client IP
	Environment    string
}

// WebhookOverride replaces individual fields of a category's built-in
// endpoint. Nil fields keep the default.
type WebhookOverride struct {
	URL         *string `yaml:"url"`
	Enabled     *bool   `yaml:"enabled"`
	DisplayName *string `yaml:"display_name"`
	Provider    *string `yaml:"provider"`
	Model       *string `yaml:"model"`
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// Load reads configuration from environment variables or .env file.
func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "fios-chat.db"),
		StorageKey:     getEnv("STORAGE_KEY", "fios-chats"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		LogFile:        getEnv("LOG_FILE", ""),
		SimulatedDelay: time.Duration(getEnvAsInt("SIMULATED_DELAY_MS", 1000)) * time.Millisecond,
		WebhookTimeout: time.Duration(getEnvAsInt("WEBHOOK_TIMEOUT_SECONDS", 0)) * time.Second,
		WebhooksFile:   getEnv("WEBHOOKS_FILE", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		SendRateLimit:  getEnvAsInt("SEND_RATE_LIMIT", 30),
		Environment:    env,
	}

	webhooks := map[domain.Category]WebhookOverride{}
	if cfg.WebhooksFile != "" {
		fromFile, err := LoadWebhooksFile(cfg.WebhooksFile)
		if err != nil {
			return nil, err
		}
		webhooks = fromFile
	}
	applyWebhookEnv(webhooks)
	cfg.Webhooks = webhooks

	if cfg.SimulatedDelay < 0 {
		return nil, fmt.Errorf("SIMULATED_DELAY_MS cannot be negative")
	}
	if cfg.SendRateLimit < 0 {
		return nil, fmt.Errorf("SEND_RATE_LIMIT cannot be negative")
	}
	return cfg, nil
}

// LoadWebhooksFile parses a YAML document keyed by category:
//
//	finance:
//	  url: https://n8n.example.com/webhook/abc
//	  enabled: true
//	support:
//	  provider: openai
//	  model: gpt-4o-mini
//	  enabled: true
func LoadWebhooksFile(path string) (map[domain.Category]WebhookOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read webhooks file: %w", err)
	}
	return ParseWebhooks(data)
}

func ParseWebhooks(data []byte) (map[domain.Category]WebhookOverride, error) {
	raw := map[string]WebhookOverride{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse webhooks: %w", err)
	}

	out := make(map[domain.Category]WebhookOverride, len(raw))
	for name, o := range raw {
		category, err := domain.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("parse webhooks: %w", err)
		}
		out[category] = o
	}
	return out, nil
}

// applyWebhookEnv layers WEBHOOK_<CATEGORY>_URL and WEBHOOK_<CATEGORY>_ENABLED
// over whatever the YAML file set.
func applyWebhookEnv(webhooks map[domain.Category]WebhookOverride) {
	for _, category := range domain.Categories {
		prefix := "WEBHOOK_" + strings.ToUpper(string(category))
		o := webhooks[category]
		changed := false

		if url, ok := os.LookupEnv(prefix + "_URL"); ok {
			o.URL = &url
			changed = true
		}
		if raw, ok := os.LookupEnv(prefix + "_ENABLED"); ok {
			enabled, err := strconv.ParseBool(raw)
			if err != nil {
				log.Printf("Warning: could not parse env var %s_ENABLED as bool. Ignoring.", prefix)
			} else {
				o.Enabled = &enabled
				changed = true
			}
		}
		if changed {
			webhooks[category] = o
		}
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
