// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Browser BrowserConfig `mapstructure:"browser"`
	Scraper ScraperConfig `mapstructure:"scraper"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// BrowserConfig governs the browser session and navigation behavior.
type BrowserConfig struct {
	// Mode selects the fetch backend: "headless" (chromedp) or "static"
	// (plain HTTP, no incremental loading).
	Mode          string `mapstructure:"mode"`
	Headless      bool   `mapstructure:"headless"`
	UserAgent     string `mapstructure:"user_agent"`
	WindowWidth   int    `mapstructure:"window_width"`
	WindowHeight  int    `mapstructure:"window_height"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	SettleMs      int    `mapstructure:"settle_ms"`
}

// ScraperConfig governs retries, rate limiting, and run bounds.
type ScraperConfig struct {
	MaxRetries        int `mapstructure:"max_retries"`
	RetryBaseMs       int `mapstructure:"retry_base_ms"`
	RetryMaxMs        int `mapstructure:"retry_max_ms"`
	FetchDelayMs      int `mapstructure:"fetch_delay_ms"`
	MaxListings       int `mapstructure:"max_listings"`
	MaxLoadMoreRounds int `mapstructure:"max_load_more_rounds"`
	RunTimeoutSec     int `mapstructure:"run_timeout_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("logging.development", true)
	v.SetDefault("browser.mode", "headless")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.nav_timeout_seconds", 30)
	v.SetDefault("browser.settle_ms", 2000)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.retry_base_ms", 1000)
	v.SetDefault("scraper.retry_max_ms", 30000)
	v.SetDefault("scraper.fetch_delay_ms", 1000)
	v.SetDefault("scraper.max_listings", 10)
	v.SetDefault("scraper.max_load_more_rounds", 5)
	v.SetDefault("scraper.run_timeout_seconds", 600)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Browser.Mode != "headless" && c.Browser.Mode != "static" {
		return fmt.Errorf("browser.mode must be headless or static, got %q", c.Browser.Mode)
	}
	if c.Browser.NavTimeoutSec <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries <= 0 {
		return fmt.Errorf("scraper.max_retries must be > 0")
	}
	if c.Scraper.RetryBaseMs <= 0 {
		return fmt.Errorf("scraper.retry_base_ms must be > 0")
	}
	if c.Scraper.MaxLoadMoreRounds < 0 {
		return fmt.Errorf("scraper.max_load_more_rounds must be >= 0")
	}
	return nil
}

// NavTimeout returns the per-attempt navigation timeout.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSec) * time.Second
}

// SettleDelay returns the post-load settle delay.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Browser.SettleMs) * time.Millisecond
}

// RetryBase returns the exponential backoff base delay.
func (c Config) RetryBase() time.Duration {
	return time.Duration(c.Scraper.RetryBaseMs) * time.Millisecond
}

// RetryMax returns the backoff cap.
func (c Config) RetryMax() time.Duration {
	return time.Duration(c.Scraper.RetryMaxMs) * time.Millisecond
}

// FetchDelay returns the fixed delay between detail-page fetches.
func (c Config) FetchDelay() time.Duration {
	return time.Duration(c.Scraper.FetchDelayMs) * time.Millisecond
}

// RunTimeout returns the overall run deadline, zero when disabled.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Scraper.RunTimeoutSec) * time.Second
}
