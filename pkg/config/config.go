package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "config.yml"
	DefaultTimeout = 30 * time.Second
	EnvPath        = "BOOKSTORE_CONFIG"
)

// ScraperConfig holds general scraper settings.
type ScraperConfig struct {
	Workers   string        `yaml:"workers"`
	Headless  bool          `yaml:"headless"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// Selector is one XPath step: elem, an optional class substring and a suffix.
type Selector struct {
	Elem   string `yaml:"elem"`
	Class  string `yaml:"class"`
	Suffix string `yaml:"suffix"`
}

// SelectorsConfig lists fallback selectors per field. The first non-empty match wins.
type SelectorsConfig struct {
	Results    []Selector `yaml:"results"`
	Details    []Selector `yaml:"details"`
	DetailItem []Selector `yaml:"detail_item"`
	Title      []Selector `yaml:"title"`
	Author     []Selector `yaml:"author"`
	Price      []Selector `yaml:"price"`
	Cover      []Selector `yaml:"cover"`
	Formats    []Selector `yaml:"formats"`
	DRM        []Selector `yaml:"drm"`
}

// Empty reports whether no field selector is configured.
func (s SelectorsConfig) Empty() bool {
	return len(s.Results) == 0 && len(s.Details) == 0 && len(s.DetailItem) == 0 &&
		len(s.Title) == 0 && len(s.Author) == 0 && len(s.Price) == 0 &&
		len(s.Cover) == 0 && len(s.Formats) == 0 && len(s.DRM) == 0
}

// StoreConfig describes a single book store.
type StoreConfig struct {
	Name              string          `yaml:"name"`
	URL               string          `yaml:"url"`
	SearchURL         string          `yaml:"search_url"`
	ExternalOnly      bool            `yaml:"external_only"`
	Render            bool            `yaml:"render"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
	WordsDRMLocked    []string        `yaml:"words_drm_locked"`
	WordsDRMUnlocked  []string        `yaml:"words_drm_unlocked"`
	Selectors         SelectorsConfig `yaml:"selectors"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper  ScraperConfig `yaml:"scraper"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Server struct {
		Port   int    `yaml:"port"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Stores []StoreConfig `yaml:"stores"`
}

// ResolvePath picks the config file: the explicit flag value, then $BOOKSTORE_CONFIG, then config.yml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// LoadConfig reads, defaults and validates the YAML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.Workers == "" {
		c.Scraper.Workers = "auto"
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = DefaultTimeout
	}
	if c.Database.Path == "" {
		c.Database.Path = "results.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports stores that are missing required fields or share a name.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, s := range c.Stores {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("stores[%d]: name is required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("stores[%d]: duplicate store name %q", i, s.Name))
		}
		seen[s.Name] = true
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("store %q: url is required", s.Name))
		}
		if s.SearchURL == "" {
			errs = append(errs, fmt.Errorf("store %q: search_url is required", s.Name))
		}
	}
	return errors.Join(errs...)
}

// Store returns the store configuration with the given name.
func (c *Config) Store(name string) (StoreConfig, bool) {
	for _, s := range c.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return StoreConfig{}, false
}
