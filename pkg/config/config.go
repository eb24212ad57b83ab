package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for config file names, env prefixes and app directories
const AppName = "xhscrawl"

// Config holds all configuration options for the crawler
type Config struct {
	// Session and transport settings for the remote API
	XHS XHSConfig `yaml:"xhs" json:"xhs"`

	// Request pacing and page delay
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Per-resource crawl defaults
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// XHSConfig holds session and transport configuration
type XHSConfig struct {
	Cookies   string        `yaml:"cookies" json:"cookies"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Proxy     string        `yaml:"proxy" json:"proxy"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds request limiter and page delay configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	PageDelay         time.Duration `yaml:"page_delay" json:"page_delay"`
	DelayStrategy     string        `yaml:"delay_strategy" json:"delay_strategy"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier        float64       `yaml:"multiplier" json:"multiplier"`
}

// CrawlConfig holds defaults for search and homefeed crawls
type CrawlConfig struct {
	SearchSort       string `yaml:"search_sort" json:"search_sort"`
	SearchNoteType   int    `yaml:"search_note_type" json:"search_note_type"`
	HomefeedCategory string `yaml:"homefeed_category" json:"homefeed_category"`
	DefaultCount     int    `yaml:"default_count" json:"default_count"`
}

// OutputConfig holds output directory and export configuration
type OutputConfig struct {
	BaseDirectory     string   `yaml:"base_directory" json:"base_directory"`
	Formats           []string `yaml:"formats" json:"formats"`
	SaveMedia         bool     `yaml:"save_media" json:"save_media"`
	MediaWorkers      int      `yaml:"media_workers" json:"media_workers"`
	OverwriteExisting bool     `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

var (
	validStrategies = map[string]bool{"constant": true, "exponential": true, "none": true}
	validFormats    = map[string]bool{"json": true, "xlsx": true, "md": true, "sqlite": true}
	validSorts      = map[string]bool{"general": true, "time_descending": true, "popularity_descending": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		XHS: XHSConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
			PageDelay:         500 * time.Millisecond,
			DelayStrategy:     "constant",
			MaxDelay:          10 * time.Second,
			Multiplier:        2.0,
		},
		Crawl: CrawlConfig{
			SearchSort:       "general",
			SearchNoteType:   0,
			HomefeedCategory: "homefeed_recommend",
			DefaultCount:     20,
		},
		Output: OutputConfig{
			BaseDirectory: filepath.Join(xdg.UserDirs.Download, AppName),
			Formats:       []string{"json"},
			MediaWorkers:  1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from XHSCRAWL_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if cookies := os.Getenv("XHSCRAWL_COOKIES"); cookies != "" {
		c.XHS.Cookies = cookies
	}
	if userAgent := os.Getenv("XHSCRAWL_USER_AGENT"); userAgent != "" {
		c.XHS.UserAgent = userAgent
	}
	if proxy := os.Getenv("XHSCRAWL_PROXY"); proxy != "" {
		c.XHS.Proxy = proxy
	}

	if rpm := os.Getenv("XHSCRAWL_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("XHSCRAWL_REQUESTS_PER_MINUTE: %w", err))
		} else if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if delay := os.Getenv("XHSCRAWL_PAGE_DELAY"); delay != "" {
		val, err := time.ParseDuration(delay)
		if err != nil {
			errs = append(errs, fmt.Errorf("XHSCRAWL_PAGE_DELAY: %w", err))
		} else {
			c.RateLimit.PageDelay = val
		}
	}
	if strategy := os.Getenv("XHSCRAWL_DELAY_STRATEGY"); strategy != "" {
		c.RateLimit.DelayStrategy = strings.ToLower(strategy)
	}

	if outputDir := os.Getenv("XHSCRAWL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if formats := os.Getenv("XHSCRAWL_FORMATS"); formats != "" {
		c.Output.Formats = splitList(formats)
	}

	if logLevel := os.Getenv("XHSCRAWL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultConfigPath is where `config init` writes and the last place Load looks
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	locations := []string{
		"." + AppName + ".yaml",
		"." + AppName + ".yml",
		DefaultConfigPath(),
		filepath.Join(xdg.ConfigHome, AppName, "config.yml"),
		filepath.Join(xdg.Home, "."+AppName+".yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Cookies are not checked here
// because they may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.XHS.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.RateLimit.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}
	if !validStrategies[strings.ToLower(c.RateLimit.DelayStrategy)] {
		errs = append(errs, fmt.Errorf("invalid delay strategy %q", c.RateLimit.DelayStrategy))
	}
	if strings.EqualFold(c.RateLimit.DelayStrategy, "exponential") && c.RateLimit.Multiplier < 1 {
		errs = append(errs, errors.New("exponential multiplier must be at least 1"))
	}

	if !validSorts[c.Crawl.SearchSort] {
		errs = append(errs, fmt.Errorf("invalid search sort %q", c.Crawl.SearchSort))
	}
	if c.Crawl.SearchNoteType < 0 || c.Crawl.SearchNoteType > 2 {
		errs = append(errs, errors.New("search note type must be 0, 1 or 2"))
	}
	if c.Crawl.DefaultCount <= 0 {
		errs = append(errs, errors.New("default count must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.MediaWorkers < 0 {
		errs = append(errs, errors.New("media workers cannot be negative"))
	}
	for _, f := range c.Output.Formats {
		if !validFormats[strings.ToLower(f)] {
			errs = append(errs, fmt.Errorf("invalid output format %q", f))
		}
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Cookies may be stored here, keep it private
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only non-zero values override.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookies, ok := flags["cookies"].(string); ok && cookies != "" {
		c.XHS.Cookies = cookies
	}
	if proxy, ok := flags["proxy"].(string); ok && proxy != "" {
		c.XHS.Proxy = proxy
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if formats, ok := flags["format"].([]string); ok && len(formats) > 0 {
		c.Output.Formats = formats
	}
	if delay, ok := flags["page-delay"].(time.Duration); ok && delay > 0 {
		c.RateLimit.PageDelay = delay
	}
	if strategy, ok := flags["delay-strategy"].(string); ok && strategy != "" {
		c.RateLimit.DelayStrategy = strategy
	}
	if rpm, ok := flags["rpm"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if media, ok := flags["media"].(bool); ok && media {
		c.Output.SaveMedia = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(xdg.ConfigHome, AppName, AppName+".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
