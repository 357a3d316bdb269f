package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/noticeharvest/notice"
	"gopkg.in/yaml.v3"
)

// SiteConfig represents the forum section of the config file. Zero values
// keep the built-in defaults.
type SiteConfig struct {
	BaseURL         string        `yaml:"base_url"`
	UserAgent       string        `yaml:"user_agent"`
	LinkSelector    string        `yaml:"link_selector"`
	MaxLinks        int           `yaml:"max_links"`
	ListSettle      time.Duration `yaml:"list_settle"`
	ContentSelector string        `yaml:"content_selector"`
	DetailSettle    time.Duration `yaml:"detail_settle"`
}

// BrowserConfig represents the browser section of the config file.
type BrowserConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
	// Headful shows the Chrome window; handy when debugging selectors.
	Headful bool `yaml:"headful"`
}

// OutputConfig represents where a harvest writes its files.
type OutputConfig struct {
	Result        string `yaml:"result"`
	Log           string `yaml:"log"`
	LogLevel      string `yaml:"log_level"`
	LogStderr     bool   `yaml:"log_stderr"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// FileConfig represents the structure of ~/.noticeharvest/config.yaml.
type FileConfig struct {
	Site    SiteConfig         `yaml:"site"`
	Boards  []notice.BoardSpec `yaml:"boards"`
	Browser BrowserConfig      `yaml:"browser"`
	Output  OutputConfig       `yaml:"output"`
	Archive struct {
		DSN string `yaml:"dsn"`
	} `yaml:"archive"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
}

// DefaultConfigPath returns ~/.noticeharvest/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".noticeharvest", "config.yaml"), nil
}

// LoadConfigFile loads configuration from path. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot
// be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
