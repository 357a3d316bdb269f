package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pevans/noticeharvest/browser"
	"github.com/pevans/noticeharvest/discovery"
	"github.com/pevans/noticeharvest/logger"
	"github.com/pevans/noticeharvest/scraper"
)

// Environment variables that override the config file.
const (
	EnvConfigPath    = "NOTICEHARVEST_CONFIG"
	EnvResult        = "NOTICEHARVEST_OUTPUT"
	EnvLog           = "NOTICEHARVEST_LOG"
	EnvBrowser       = "NOTICEHARVEST_BROWSER"
	EnvArchiveDSN    = "NOTICEHARVEST_ARCHIVE_DSN"
	EnvScreenshotDir = "NOTICEHARVEST_SCREENSHOT_DIR"
	EnvAPIAddr       = "NOTICEHARVEST_API_ADDR"
)

// Config is the resolved configuration: defaults, then the config file, then
// environment variables.
type Config struct {
	Harvest    discovery.HarvesterConfig
	UserAgent  string
	Browser    string
	Timeout    time.Duration
	Headless   bool
	ResultPath string
	LogPath    string
	LogLevel   string
	LogStderr  bool
	ArchiveDSN string
	APIAddr    string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Harvest:    discovery.DefaultHarvesterConfig(),
		UserAgent:  scraper.DefaultUserAgent,
		Browser:    browser.BackendChrome,
		Timeout:    browser.DefaultTimeout,
		Headless:   true,
		ResultPath: "notices.json",
		LogPath:    "harvest.log",
		LogLevel:   "info",
		APIAddr:    "localhost:8082",
	}
}

// Load resolves the configuration. A missing config file is not an error.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if file != nil {
		cfg.apply(file)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// apply copies every non-zero value from the config file.
func (c *Config) apply(f *FileConfig) {
	site := &c.Harvest.ScraperConfig
	setString(&site.BaseURL, f.Site.BaseURL)
	setString(&c.UserAgent, f.Site.UserAgent)
	setString(&site.ListConfig.LinkSelector, f.Site.LinkSelector)
	setString(&site.ArticleConfig.ContentSelector, f.Site.ContentSelector)
	if f.Site.MaxLinks > 0 {
		site.ListConfig.MaxLinks = f.Site.MaxLinks
	}
	if f.Site.ListSettle > 0 {
		site.ListConfig.Settle = f.Site.ListSettle
	}
	if f.Site.DetailSettle > 0 {
		site.ArticleConfig.Settle = f.Site.DetailSettle
	}

	if len(f.Boards) > 0 {
		c.Harvest.Boards = f.Boards
	}

	setString(&c.Browser, f.Browser.Backend)
	if f.Browser.Timeout > 0 {
		c.Timeout = f.Browser.Timeout
	}
	c.Headless = !f.Browser.Headful

	setString(&c.ResultPath, f.Output.Result)
	setString(&c.LogPath, f.Output.Log)
	setString(&c.LogLevel, f.Output.LogLevel)
	setString(&c.Harvest.ScreenshotDir, f.Output.ScreenshotDir)
	c.LogStderr = f.Output.LogStderr

	setString(&c.ArchiveDSN, f.Archive.DSN)
	setString(&c.APIAddr, f.API.Addr)
}

func (c *Config) applyEnv() {
	c.ResultPath = getEnv(EnvResult, c.ResultPath)
	c.LogPath = getEnv(EnvLog, c.LogPath)
	c.Browser = getEnv(EnvBrowser, c.Browser)
	c.ArchiveDSN = getEnv(EnvArchiveDSN, c.ArchiveDSN)
	c.Harvest.ScreenshotDir = getEnv(EnvScreenshotDir, c.Harvest.ScreenshotDir)
	c.APIAddr = getEnv(EnvAPIAddr, c.APIAddr)
}

// Validate reports configuration that cannot produce a harvest.
func (c *Config) Validate() error {
	if c.Browser != browser.BackendChrome && c.Browser != browser.BackendStatic {
		return fmt.Errorf("browser backend must be %q or %q, got %q",
			browser.BackendChrome, browser.BackendStatic, c.Browser)
	}
	if c.Harvest.ScraperConfig.BaseURL == "" {
		return fmt.Errorf("site base_url is required")
	}
	for _, b := range c.Harvest.Boards {
		if b.ID == "" {
			return fmt.Errorf("board id is required")
		}
	}
	return nil
}

// BrowserOptions returns the options for browser.NewLauncher.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
		Headless:  c.Headless,
	}
}

// LoggerConfig returns the harvest log configuration. The log file is
// appended to on every run.
func (c *Config) LoggerConfig() logger.Config {
	paths := []string{c.LogPath}
	if c.LogStderr {
		paths = append(paths, "stderr")
	}
	return logger.Config{
		Level:       c.LogLevel,
		Format:      logger.ConsoleFormat,
		OutputPaths: paths,
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
