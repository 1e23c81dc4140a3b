package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"weibograb/pkg/logger"
)

// Config holds all configuration options for the archiver
type Config struct {
	// Weibo session settings
	Weibo WeiboConfig `yaml:"weibo" json:"weibo"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output directory settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Task queue settings
	Tasks TasksConfig `yaml:"tasks" json:"tasks"`

	// Favorites crawl settings
	Favorites FavoritesConfig `yaml:"favorites" json:"favorites"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// WeiboConfig holds session-specific configuration
type WeiboConfig struct {
	Cookie    string `yaml:"cookie" json:"cookie"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	APITimeout      time.Duration `yaml:"api_timeout" json:"api_timeout"`
	ImageTimeout    time.Duration `yaml:"image_timeout" json:"image_timeout"`
	VideoTimeout    time.Duration `yaml:"video_timeout" json:"video_timeout"`
	VideoRetries    int           `yaml:"video_retries" json:"video_retries"`
	VideoRetryDelay time.Duration `yaml:"video_retry_delay" json:"video_retry_delay"`
	OverwritePics   bool          `yaml:"overwrite_pics" json:"overwrite_pics"`
	OverwriteVideos bool          `yaml:"overwrite_videos" json:"overwrite_videos"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// TasksConfig holds task queue configuration
type TasksConfig struct {
	// Backend selects the queue storage engine: "csv" or "sqlite"
	Backend string `yaml:"backend" json:"backend"`
	File    string `yaml:"file" json:"file"`
}

// FavoritesConfig holds favorites crawl configuration
type FavoritesConfig struct {
	MaxPages     int           `yaml:"max_pages" json:"max_pages"`
	PageInterval time.Duration `yaml:"page_interval" json:"page_interval"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Weibo: WeiboConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/86.0.4240.111 Safari/537.36",
		},
		Download: DownloadConfig{
			APITimeout:      10 * time.Second,
			ImageTimeout:    30 * time.Second,
			VideoTimeout:    60 * time.Second,
			VideoRetries:    3,
			VideoRetryDelay: 2 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
		},
		Tasks: TasksConfig{
			Backend: "csv",
			File:    "download_tasks.csv",
		},
		Favorites: FavoritesConfig{
			MaxPages:     5,
			PageInterval: 2 * time.Second,
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML config
// file, then environment variables, then command line flag overrides.
func Load(configFile string, flags map[string]interface{}) (*Config, error) {
	// Load .env if present; a missing file is not an error
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := configFile
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, err
		}
	}

	cfg.LoadFromEnv()
	cfg.applyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile checks the default config file locations
func findConfigFile() string {
	candidates := []string{"weibograb.yaml", "weibograb.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".weibograb.yaml"),
			filepath.Join(home, ".config", "weibograb", "config.yaml"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// loadFromFile loads configuration from a YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if cookie := os.Getenv("WEIBOGRAB_COOKIE"); cookie != "" {
		c.Weibo.Cookie = cookie
	}
	if userAgent := os.Getenv("WEIBOGRAB_USER_AGENT"); userAgent != "" {
		c.Weibo.UserAgent = userAgent
	}
	if dir := os.Getenv("WEIBOGRAB_OUTPUT_DIR"); dir != "" {
		c.Output.BaseDirectory = dir
	}
	if backend := os.Getenv("WEIBOGRAB_TASKS_BACKEND"); backend != "" {
		c.Tasks.Backend = backend
	}
	if file := os.Getenv("WEIBOGRAB_TASKS_FILE"); file != "" {
		c.Tasks.File = file
	}
	if level := os.Getenv("WEIBOGRAB_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if logFile := os.Getenv("WEIBOGRAB_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
}

// applyFlags applies command line flag overrides
func (c *Config) applyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "cookie":
			if v, ok := value.(string); ok {
				c.Weibo.Cookie = v
			}
		case "output":
			if v, ok := value.(string); ok {
				c.Output.BaseDirectory = v
			}
		case "tasks-backend":
			if v, ok := value.(string); ok {
				c.Tasks.Backend = v
			}
		case "tasks-file":
			if v, ok := value.(string); ok {
				c.Tasks.File = v
			}
		case "overwrite-pics":
			if v, ok := value.(bool); ok {
				c.Download.OverwritePics = v
			}
		case "overwrite-videos":
			if v, ok := value.(bool); ok {
				c.Download.OverwriteVideos = v
			}
		case "max-pages":
			if v, ok := value.(int); ok {
				c.Favorites.MaxPages = v
			}
		case "log-level":
			if v, ok := value.(string); ok {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch c.Tasks.Backend {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("invalid tasks backend %q (must be csv or sqlite)", c.Tasks.Backend)
	}
	if c.Tasks.File == "" {
		return fmt.Errorf("tasks file must not be empty")
	}
	if c.Output.BaseDirectory == "" {
		return fmt.Errorf("output base directory must not be empty")
	}
	if c.Download.APITimeout <= 0 || c.Download.ImageTimeout <= 0 || c.Download.VideoTimeout <= 0 {
		return fmt.Errorf("download timeouts must be positive")
	}
	if c.Download.VideoRetries < 1 {
		return fmt.Errorf("video retries must be at least 1")
	}
	if c.Favorites.MaxPages < 1 {
		return fmt.Errorf("favorites max pages must be at least 1")
	}
	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
