// Package config loads and validates all environment variables at startup.
// Every other package receives typed values — nothing reads os.Getenv directly.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port string // default "8080"
	Env  string // "development" | "staging" | "production"

	// ── Template store ────────────────────────────────────────────────────────
	TemplateBaseURL  string        // e.g. "https://templates.tactful.app"
	TemplateSource   string        // default "tactful"
	TemplateVersion  string        // default "v1"
	TemplateTTL      time.Duration // default 5m
	TemplateCacheMax int           // default 256 entries

	// ── Anthropic ─────────────────────────────────────────────────────────────
	AnthropicAPIKey      string
	AnthropicModel       string // default "claude-haiku-4-5"
	AnthropicStrongModel string // default "claude-opus-4-5"

	// ── DeepSeek ──────────────────────────────────────────────────────────────
	// Optional. When set, DeepSeek is the primary with Anthropic as fallback.
	// If DEEPSEEK_API_KEY is empty, Anthropic handles everything.
	DeepSeekAPIKey      string
	DeepSeekModel       string // default "deepseek-chat"
	DeepSeekStrongModel string // default "deepseek-reasoner"

	// ── Pipeline ──────────────────────────────────────────────────────────────
	MinFactsLength int           // default 20 chars
	CallTimeout    time.Duration // per generator call, default 60s
}

// Load reads all environment variables and returns a validated Config.
// It automatically loads a .env file from the working directory when present,
// so plain `go run ./cmd/api` works in development without any wrapper.
// Real environment variables always take precedence over .env values.
func Load() (*Config, error) {
	loadDotEnv(".env")

	c := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		TemplateBaseURL:      os.Getenv("TEMPLATE_BASE_URL"),
		TemplateSource:       getEnv("TEMPLATE_SOURCE", "tactful"),
		TemplateVersion:      getEnv("TEMPLATE_VERSION", "v1"),
		TemplateTTL:          getEnvAsDuration("TEMPLATE_TTL", 5*time.Minute),
		TemplateCacheMax:     getEnvAsInt("TEMPLATE_CACHE_MAX", 256),
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:       getEnv("ANTHROPIC_MODEL", "claude-haiku-4-5"),
		AnthropicStrongModel: getEnv("ANTHROPIC_STRONG_MODEL", "claude-opus-4-5"),
		DeepSeekAPIKey:       os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekModel:        getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		DeepSeekStrongModel:  getEnv("DEEPSEEK_STRONG_MODEL", "deepseek-reasoner"),
		MinFactsLength:       getEnvAsInt("MIN_FACTS_LENGTH", 20),
		CallTimeout:          getEnvAsDuration("CALL_TIMEOUT", 60*time.Second),
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error

	if c.TemplateBaseURL == "" {
		errs = append(errs, fmt.Errorf("missing required env var: TEMPLATE_BASE_URL"))
	}

	// At least one AI provider must be configured.
	if c.AnthropicAPIKey == "" && c.DeepSeekAPIKey == "" {
		errs = append(errs, fmt.Errorf("at least one of ANTHROPIC_API_KEY or DEEPSEEK_API_KEY must be set"))
	}

	if c.MinFactsLength < 1 {
		errs = append(errs, fmt.Errorf("MIN_FACTS_LENGTH must be >= 1, got %d", c.MinFactsLength))
	}

	return errors.Join(errs...)
}

// ─── DOT-ENV LOADER ──────────────────────────────────────────────────────────

// loadDotEnv reads key=value pairs from path and sets them in the environment,
// but only for keys that are not already set. This means real env vars (e.g.
// from Docker / Railway / your shell) always win over the file.
// Missing file, blank lines, and #-comments are all silently ignored.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // file absent — that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		// Strip optional surrounding quotes: KEY="value" or KEY='value'
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		// Only set if the key isn't already present in the environment.
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Try a plain integer first (treated as seconds, minutes, or hours
	// depending on the variable name).
	if value, err := strconv.Atoi(valueStr); err == nil {
		switch {
		case strings.Contains(key, "HOURS"):
			return time.Duration(value) * time.Hour
		case strings.Contains(key, "MINUTES"):
			return time.Duration(value) * time.Minute
		default:
			return time.Duration(value) * time.Second
		}
	}
	// Fall back to Go duration syntax: "30s", "5m", "1h", etc.
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
