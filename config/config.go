package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hkipo-research/hkipo/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. HKIPO_LOG_LEVEL
const EnvPrefix = "HKIPO"

// Config holds every tunable of the CLI and the HTTP server
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	ServerPort string `mapstructure:"server_port"`

	IPOBaseURL  string `mapstructure:"ipo_base_url"`
	SponsorURL  string `mapstructure:"sponsor_url"`
	ChartAPIURL string `mapstructure:"chart_api_url"`
	PostAPIURL  string `mapstructure:"post_api_url"`

	SearchPython string `mapstructure:"search_python"`
	SearchScript string `mapstructure:"search_script"`

	PageTimeout    time.Duration `mapstructure:"page_timeout"`
	SponsorTimeout time.Duration `mapstructure:"sponsor_timeout"`
	APITimeout     time.Duration `mapstructure:"api_timeout"`
	PostTimeout    time.Duration `mapstructure:"post_timeout"`
	SearchTimeout  time.Duration `mapstructure:"search_timeout"`

	MaxAttempts     int           `mapstructure:"max_attempts"`
	RetryPause      time.Duration `mapstructure:"retry_pause"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"`

	CNYHKDRate  float64 `mapstructure:"cny_hkd_rate"`
	IndexTicker string  `mapstructure:"index_ticker"`

	HistoryLimit int `mapstructure:"history_limit"`
	TweetLimit   int `mapstructure:"tweet_limit"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:        "warn",
		LogFormat:       "text",
		ServerPort:      "8080",
		IPOBaseURL:      "http://www.aastocks.com/tc/stocks/market/ipo",
		SponsorURL:      "http://www.aastocks.com/sc/stocks/market/ipo/sponsor.aspx",
		ChartAPIURL:     "https://query1.finance.yahoo.com/v8/finance/chart",
		PostAPIURL:      "https://api.fxtwitter.com",
		SearchPython:    "python3",
		SearchScript:    "~/.openclaw/skills/web-search/web-search/scripts/search.py",
		PageTimeout:     20 * time.Second,
		SponsorTimeout:  15 * time.Second,
		APITimeout:      10 * time.Second,
		PostTimeout:     15 * time.Second,
		SearchTimeout:   30 * time.Second,
		MaxAttempts:     3,
		RetryPause:      time.Second,
		PolitenessDelay: 250 * time.Millisecond,
		CNYHKDRate:      1.12,
		IndexTicker:     "^HSI",
		HistoryLimit:    50,
		TweetLimit:      5,
	}
}

// Load reads .env (if present), an optional config file and HKIPO_* environment
// variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, shared.NewServiceError(
				shared.ErrorCategoryConfiguration,
				"CONFIG_READ_FAILED",
				fmt.Sprintf("reading config file %s", configFile),
				"Config",
				"Load",
				false,
				err,
			)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	cfg.ValidateAndApplyDefaults()
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("server_port", cfg.ServerPort)
	v.SetDefault("ipo_base_url", cfg.IPOBaseURL)
	v.SetDefault("sponsor_url", cfg.SponsorURL)
	v.SetDefault("chart_api_url", cfg.ChartAPIURL)
	v.SetDefault("post_api_url", cfg.PostAPIURL)
	v.SetDefault("search_python", cfg.SearchPython)
	v.SetDefault("search_script", cfg.SearchScript)
	v.SetDefault("page_timeout", cfg.PageTimeout)
	v.SetDefault("sponsor_timeout", cfg.SponsorTimeout)
	v.SetDefault("api_timeout", cfg.APITimeout)
	v.SetDefault("post_timeout", cfg.PostTimeout)
	v.SetDefault("search_timeout", cfg.SearchTimeout)
	v.SetDefault("max_attempts", cfg.MaxAttempts)
	v.SetDefault("retry_pause", cfg.RetryPause)
	v.SetDefault("politeness_delay", cfg.PolitenessDelay)
	v.SetDefault("cny_hkd_rate", cfg.CNYHKDRate)
	v.SetDefault("index_ticker", cfg.IndexTicker)
	v.SetDefault("history_limit", cfg.HistoryLimit)
	v.SetDefault("tweet_limit", cfg.TweetLimit)
}

// ValidateAndApplyDefaults replaces out-of-range values with defaults and logs each correction
func (c *Config) ValidateAndApplyDefaults() {
	defaults := Default()
	logger := logrus.WithField("component", "Config")

	fixDuration := func(name string, value *time.Duration, fallback time.Duration) {
		if *value <= 0 {
			logger.WithField("key", name).Warnf("Invalid %s %v, using %v", name, *value, fallback)
			*value = fallback
		}
	}
	fixDuration("page_timeout", &c.PageTimeout, defaults.PageTimeout)
	fixDuration("sponsor_timeout", &c.SponsorTimeout, defaults.SponsorTimeout)
	fixDuration("api_timeout", &c.APITimeout, defaults.APITimeout)
	fixDuration("post_timeout", &c.PostTimeout, defaults.PostTimeout)
	fixDuration("search_timeout", &c.SearchTimeout, defaults.SearchTimeout)

	if c.RetryPause < 0 {
		c.RetryPause = defaults.RetryPause
	}
	if c.PolitenessDelay < 0 {
		c.PolitenessDelay = 0
	}
	if c.MaxAttempts < 1 {
		logger.Warnf("Invalid max_attempts %d, using %d", c.MaxAttempts, defaults.MaxAttempts)
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.CNYHKDRate <= 0 {
		logger.Warnf("Invalid cny_hkd_rate %v, using %v", c.CNYHKDRate, defaults.CNYHKDRate)
		c.CNYHKDRate = defaults.CNYHKDRate
	}
	if c.HistoryLimit < 1 {
		c.HistoryLimit = defaults.HistoryLimit
	}
	if c.TweetLimit < 1 {
		c.TweetLimit = defaults.TweetLimit
	}
	if c.IndexTicker == "" {
		c.IndexTicker = defaults.IndexTicker
	}
	if c.ServerPort == "" {
		c.ServerPort = defaults.ServerPort
	}

	c.IPOBaseURL = strings.TrimRight(c.IPOBaseURL, "/")
	c.ChartAPIURL = strings.TrimRight(c.ChartAPIURL, "/")
	c.PostAPIURL = strings.TrimRight(c.PostAPIURL, "/")
	c.SearchScript = expandHome(c.SearchScript)
}

// PageFetcherOptions returns fetcher options for the IPO listing and detail pages
func (c *Config) PageFetcherOptions() shared.FetcherOptions {
	return c.fetcherOptions("PageFetcher", c.PageTimeout)
}

// SponsorFetcherOptions returns fetcher options for the sponsor pages
func (c *Config) SponsorFetcherOptions() shared.FetcherOptions {
	return c.fetcherOptions("SponsorFetcher", c.SponsorTimeout)
}

// APIFetcherOptions returns fetcher options for the index price API
func (c *Config) APIFetcherOptions() shared.FetcherOptions {
	options := c.fetcherOptions("ChartAPIFetcher", c.APITimeout)
	options.Accept = "application/json"
	options.PolitenessDelay = 0
	return options
}

// PostFetcherOptions returns fetcher options for the post metadata API
func (c *Config) PostFetcherOptions() shared.FetcherOptions {
	options := c.fetcherOptions("PostAPIFetcher", c.PostTimeout)
	options.Accept = "application/json"
	return options
}

func (c *Config) fetcherOptions(name string, timeout time.Duration) shared.FetcherOptions {
	options := shared.NewDefaultFetcherOptions(name)
	options.Timeout = timeout
	options.MaxAttempts = c.MaxAttempts
	options.RetryPause = c.RetryPause
	options.PolitenessDelay = c.PolitenessDelay
	return options
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
