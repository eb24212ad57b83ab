package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.PageDelay)
	assert.Equal(t, "constant", cfg.RateLimit.DelayStrategy)
	assert.Equal(t, "general", cfg.Crawl.SearchSort)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.NotEmpty(t, cfg.Output.BaseDirectory)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("XHSCRAWL_COOKIES", "a1=abc; web_session=xyz")
	t.Setenv("XHSCRAWL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("XHSCRAWL_PAGE_DELAY", "1s")
	t.Setenv("XHSCRAWL_DELAY_STRATEGY", "Exponential")
	t.Setenv("XHSCRAWL_OUTPUT_DIR", "/tmp/xhs-out")
	t.Setenv("XHSCRAWL_FORMATS", "json, xlsx ,md")
	t.Setenv("XHSCRAWL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "a1=abc; web_session=xyz", cfg.XHS.Cookies)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, time.Second, cfg.RateLimit.PageDelay)
	assert.Equal(t, "exponential", cfg.RateLimit.DelayStrategy)
	assert.Equal(t, "/tmp/xhs-out", cfg.Output.BaseDirectory)
	assert.Equal(t, []string{"json", "xlsx", "md"}, cfg.Output.Formats)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("XHSCRAWL_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("XHSCRAWL_PAGE_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XHSCRAWL_REQUESTS_PER_MINUTE")
	assert.Contains(t, err.Error(), "XHSCRAWL_PAGE_DELAY")
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
xhs:
  cookies: "web_session=file"
  timeout: 15s
rate_limit:
  requests_per_minute: 20
  burst_size: 2
  page_delay: 250ms
  delay_strategy: none
crawl:
  search_sort: time_descending
  search_note_type: 2
  default_count: 50
output:
  base_directory: /file/output
  formats: [json, sqlite]
  save_media: true
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(configPath))

	assert.Equal(t, "web_session=file", cfg.XHS.Cookies)
	assert.Equal(t, 15*time.Second, cfg.XHS.Timeout)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.PageDelay)
	assert.Equal(t, "none", cfg.RateLimit.DelayStrategy)
	assert.Equal(t, "time_descending", cfg.Crawl.SearchSort)
	assert.Equal(t, 2, cfg.Crawl.SearchNoteType)
	assert.Equal(t, 50, cfg.Crawl.DefaultCount)
	assert.Equal(t, []string{"json", "sqlite"}, cfg.Output.Formats)
	assert.True(t, cfg.Output.SaveMedia)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// untouched keys keep defaults
	assert.Equal(t, "homefeed_recommend", cfg.Crawl.HomefeedCategory)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("xhs: [unclosed"), 0644))
	err = cfg.LoadFromFile(bad)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "zero rpm",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantErr: "requests per minute must be positive",
		},
		{
			name:    "negative page delay",
			mutate:  func(c *Config) { c.RateLimit.PageDelay = -time.Second },
			wantErr: "page delay cannot be negative",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.RateLimit.DelayStrategy = "fibonacci" },
			wantErr: `invalid delay strategy "fibonacci"`,
		},
		{
			name: "exponential with shrinking multiplier",
			mutate: func(c *Config) {
				c.RateLimit.DelayStrategy = "exponential"
				c.RateLimit.Multiplier = 0.5
			},
			wantErr: "exponential multiplier must be at least 1",
		},
		{
			name:    "unknown sort",
			mutate:  func(c *Config) { c.Crawl.SearchSort = "random" },
			wantErr: `invalid search sort "random"`,
		},
		{
			name:    "note type out of range",
			mutate:  func(c *Config) { c.Crawl.SearchNoteType = 3 },
			wantErr: "search note type must be 0, 1 or 2",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Output.Formats = []string{"json", "csv"} },
			wantErr: `invalid output format "csv"`,
		},
		{
			name:    "missing output dir",
			mutate:  func(c *Config) { c.Output.BaseDirectory = "" },
			wantErr: "output directory is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.BurstSize = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "burst size must be positive")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"cookies":        "web_session=flag",
		"output":         "/flag/out",
		"format":         []string{"xlsx"},
		"page-delay":     2 * time.Second,
		"delay-strategy": "exponential",
		"rpm":            10,
		"media":          true,
		"log-level":      "error",
		"proxy":          "",
	})

	assert.Equal(t, "web_session=flag", cfg.XHS.Cookies)
	assert.Equal(t, "/flag/out", cfg.Output.BaseDirectory)
	assert.Equal(t, []string{"xlsx"}, cfg.Output.Formats)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.PageDelay)
	assert.Equal(t, "exponential", cfg.RateLimit.DelayStrategy)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.Output.SaveMedia)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Empty(t, cfg.XHS.Proxy, "empty flag values must not override")
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.XHS.Cookies = "web_session=saved"
	cfg.Output.Formats = []string{"md", "xlsx"}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nrate_limit:\n  requests_per_minute: 5\n"), 0644))
	t.Setenv("XHSCRAWL_LOG_LEVEL", "error")

	cfg, err := Load(path, map[string]interface{}{"rpm": 7})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level, "env overrides file")
	assert.Equal(t, 7, cfg.RateLimit.RequestsPerMinute, "flags override file")
}

func TestLoadValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  search_sort: sideways\n"), 0644))

	_, err := Load(path, nil)
	assert.ErrorContains(t, err, "configuration validation failed")
}
