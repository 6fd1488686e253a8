package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hkipo-research/hkipo/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.IPOBaseURL, cfg.IPOBaseURL)
	assert.Equal(t, defaults.SponsorURL, cfg.SponsorURL)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryPause)
	assert.Equal(t, 20*time.Second, cfg.PageTimeout)
	assert.Equal(t, 1.12, cfg.CNYHKDRate)
	assert.Equal(t, "^HSI", cfg.IndexTicker)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.NotContains(t, cfg.SearchScript, "~")
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("HKIPO_MAX_ATTEMPTS", "5")
	t.Setenv("HKIPO_RETRY_PAUSE", "2s")
	t.Setenv("HKIPO_CNY_HKD_RATE", "1.09")
	t.Setenv("HKIPO_IPO_BASE_URL", "http://mirror.test/ipo/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryPause)
	assert.Equal(t, 1.09, cfg.CNYHKDRate)
	assert.Equal(t, "http://mirror.test/ipo", cfg.IPOBaseURL)
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hkipo.yaml")
	content := "history_limit: 10\nindex_ticker: \"^HSCE\"\npost_api_url: https://posts.test/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, "^HSCE", cfg.IndexTicker)
	assert.Equal(t, "https://posts.test", cfg.PostAPIURL)
}

func TestLoadReportsMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, shared.ErrorCategoryConfiguration, serviceErr.Category)
}

func TestValidateAndApplyDefaultsRepairsInvalidValues(t *testing.T) {
	cfg := &Config{
		PageTimeout:     -time.Second,
		MaxAttempts:     0,
		RetryPause:      -time.Second,
		PolitenessDelay: -time.Second,
		CNYHKDRate:      0,
		HistoryLimit:    -1,
		TweetLimit:      0,
	}

	cfg.ValidateAndApplyDefaults()

	defaults := Default()
	assert.Equal(t, defaults.PageTimeout, cfg.PageTimeout)
	assert.Equal(t, defaults.MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, defaults.RetryPause, cfg.RetryPause)
	assert.Equal(t, time.Duration(0), cfg.PolitenessDelay)
	assert.Equal(t, defaults.CNYHKDRate, cfg.CNYHKDRate)
	assert.Equal(t, defaults.HistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, defaults.TweetLimit, cfg.TweetLimit)
	assert.Equal(t, defaults.IndexTicker, cfg.IndexTicker)
	assert.Equal(t, defaults.ServerPort, cfg.ServerPort)
}

func TestFetcherOptionsFollowConfig(t *testing.T) {
	cfg := Default()
	cfg.MaxAttempts = 4

	page := cfg.PageFetcherOptions()
	assert.Equal(t, 4, page.MaxAttempts)
	assert.Equal(t, cfg.PageTimeout, page.Timeout)
	assert.Equal(t, cfg.PolitenessDelay, page.PolitenessDelay)

	api := cfg.APIFetcherOptions()
	assert.Equal(t, "application/json", api.Accept)
	assert.Equal(t, time.Duration(0), api.PolitenessDelay)
	assert.Equal(t, cfg.APITimeout, api.Timeout)
}
