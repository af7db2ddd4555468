package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogPretty bool

	BasketFile   string
	DefaultStart string
	DefaultEnd   string

	YahooRatePerSec float64
	QuoteCacheTTL   time.Duration
	ChartCacheTTL   time.Duration
	JacobiMaxIter   int
	CleanIQR        bool

	// Telegram is enabled when both are set.
	TelegramToken    string
	WebhookPublicURL string
	// OpenAIKey enables AI commentary on analyses; optional.
	OpenAIKey string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("env %s: %w", k, err)
	}
	return b, nil
}

func getEnvInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("env %s: %w", k, err)
	}
	return n, nil
}

func getEnvFloat(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("env %s: %w", k, err)
	}
	return f, nil
}

func getEnvDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("env %s: %w", k, err)
	}
	return d, nil
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "5000"),
		DBPath:           getEnv("DB_PATH", "./data/stockpca.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		BasketFile:       getEnv("BASKET_FILE", ""),
		DefaultStart:     getEnv("DEFAULT_START", "2024-09-01"),
		DefaultEnd:       getEnv("DEFAULT_END", "2024-10-01"),
		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookPublicURL: getEnv("WEBHOOK_PUBLIC_URL", ""),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
	}

	var errs []error
	var err error
	if cfg.LogPretty, err = getEnvBool("LOG_PRETTY", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.CleanIQR, err = getEnvBool("CLEAN_IQR", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.YahooRatePerSec, err = getEnvFloat("YAHOO_RATE_PER_SEC", 2); err != nil {
		errs = append(errs, err)
	}
	if cfg.QuoteCacheTTL, err = getEnvDuration("QUOTE_CACHE_TTL", 15*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.ChartCacheTTL, err = getEnvDuration("CHART_CACHE_TTL", 60*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.JacobiMaxIter, err = getEnvInt("JACOBI_MAX_ITERATIONS", 50); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations that the environment cannot express.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if (c.TelegramToken == "") != (c.WebhookPublicURL == "") {
		return errors.New("TELEGRAM_BOT_TOKEN and WEBHOOK_PUBLIC_URL must be set together")
	}
	start, err := time.Parse(dateLayout, c.DefaultStart)
	if err != nil {
		return fmt.Errorf("DEFAULT_START: %w", err)
	}
	end, err := time.Parse(dateLayout, c.DefaultEnd)
	if err != nil {
		return fmt.Errorf("DEFAULT_END: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("DEFAULT_END %s must be after DEFAULT_START %s", c.DefaultEnd, c.DefaultStart)
	}
	if c.YahooRatePerSec <= 0 {
		return fmt.Errorf("YAHOO_RATE_PER_SEC must be positive, got %v", c.YahooRatePerSec)
	}
	if c.JacobiMaxIter <= 0 {
		return fmt.Errorf("JACOBI_MAX_ITERATIONS must be positive, got %d", c.JacobiMaxIter)
	}
	if c.QuoteCacheTTL < 0 || c.ChartCacheTTL < 0 {
		return errors.New("cache TTLs must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether the bot should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.WebhookPublicURL != ""
}
