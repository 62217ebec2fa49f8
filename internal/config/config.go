package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/byteowlz/lstcnt/internal/extractor"
	"github.com/byteowlz/lstcnt/internal/registry"
)

const appName = "lstcnt"

type Config struct {
	Fetch      FetchConfig      `mapstructure:"fetch" toml:"fetch"`
	Browser    BrowserConfig    `mapstructure:"browser" toml:"browser"`
	Extraction ExtractionConfig `mapstructure:"extraction" toml:"extraction"`
	Parallel   ParallelConfig   `mapstructure:"parallel" toml:"parallel"`
	Output     OutputConfig     `mapstructure:"output" toml:"output"`
	Logging    LoggingConfig    `mapstructure:"logging" toml:"logging"`
	Sites      []SiteConfig     `mapstructure:"sites" toml:"sites"`
}

type FetchConfig struct {
	Backend         string `mapstructure:"backend" toml:"backend" comment:"http, chrome or reader"`
	Mode            string `mapstructure:"mode" toml:"mode" comment:"static, javascript or auto (chrome backend)"`
	Timeout         int    `mapstructure:"timeout" toml:"timeout" comment:"seconds per site"`
	UserAgent       string `mapstructure:"user_agent" toml:"user_agent"`
	BrowserAgent    string `mapstructure:"browser_agent" toml:"browser_agent" comment:"auto, chrome, firefox, safari or edge"`
	AcceptLanguage  string `mapstructure:"accept_language" toml:"accept_language"`
	FollowRedirects bool   `mapstructure:"follow_redirects" toml:"follow_redirects"`
	MaxRedirects    int    `mapstructure:"max_redirects" toml:"max_redirects"`
	WaitForSelector string `mapstructure:"wait_for_selector" toml:"wait_for_selector"`
	SettleDelayMS   int    `mapstructure:"settle_delay_ms" toml:"settle_delay_ms" comment:"extra wait after a rendered page is ready"`
	ReaderAPIKey    string `mapstructure:"reader_api_key" toml:"reader_api_key"`
}

type BrowserConfig struct {
	Default string               `mapstructure:"default" toml:"default" comment:"auto, chrome, firefox, safari or zen"`
	Cookies BrowserCookiesConfig `mapstructure:"cookies" toml:"cookies"`
}

type BrowserCookiesConfig struct {
	Enabled bool     `mapstructure:"enabled" toml:"enabled"`
	Domains []string `mapstructure:"domains" toml:"domains"`
	Exclude []string `mapstructure:"exclude" toml:"exclude"`
}

type ExtractionConfig struct {
	MinDigits       int      `mapstructure:"min_digits" toml:"min_digits" comment:"significant digits a keyword match needs"`
	TextMode        string   `mapstructure:"text_mode" toml:"text_mode" comment:"full or readability"`
	DefaultKeywords []string `mapstructure:"default_keywords" toml:"default_keywords,omitempty"`
}

type ParallelConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency" toml:"max_concurrency" comment:"1 processes sites in order"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" toml:"format" comment:"text, json or yaml"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// SiteConfig is one [[sites]] entry. Selector may use the :has-text('...')
// pseudo-class; an entry with neither selector nor keywords counts by the
// default keywords.
type SiteConfig struct {
	URL         string   `mapstructure:"url" toml:"url"`
	Label       string   `mapstructure:"label" toml:"label,omitempty"`
	Selector    string   `mapstructure:"selector" toml:"selector,omitempty"`
	TextFilter  string   `mapstructure:"text_filter" toml:"text_filter,omitempty"`
	Keywords    []string `mapstructure:"keywords" toml:"keywords,omitempty"`
	Unsupported bool     `mapstructure:"unsupported" toml:"unsupported,omitempty"`
}

func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			Backend:         "http",
			Mode:            "auto",
			Timeout:         30,
			BrowserAgent:    "auto",
			AcceptLanguage:  "en-US,en;q=0.9",
			FollowRedirects: true,
			MaxRedirects:    10,
			SettleDelayMS:   2000,
		},
		Browser: BrowserConfig{
			Default: "auto",
			Cookies: BrowserCookiesConfig{
				Enabled: false,
				Domains: []string{"*"},
				Exclude: []string{},
			},
		},
		Extraction: ExtractionConfig{
			MinDigits: extractor.DefaultMinDigits,
			TextMode:  "full",
		},
		Parallel: ParallelConfig{MaxConcurrency: 1},
		Output:   OutputConfig{Format: "text"},
		Logging:  LoggingConfig{Level: "info"},
		Sites:    DefaultSites(),
	}
}

// DefaultSites is the built-in portal table.
func DefaultSites() []SiteConfig {
	return []SiteConfig{
		{URL: "https://www.njuskalo.hr/nekretnine", Label: "Njuškalo", Selector: "span.page-title-num-adverts"},
		{URL: "https://www.nekretnine.rs/", Label: "Nekretnine.rs", Selector: "h1:has-text('oglasa')"},
		{URL: "https://www.4zida.rs/", Label: "4zida", Unsupported: true},
		{URL: "https://www.bolha.com/nepremicnine", Label: "Bolha", Selector: "div.result-filter-count"},
		{URL: "https://imot.bg/", Label: "imot.bg", Selector: "div.broi_oferti"},
		{URL: "https://www.alo.bg/realni-imoti/", Label: "alo.bg", Selector: "h1.page-title"},
		{URL: "https://homes.bg/", Label: "homes.bg", Selector: "div.box > div > h2"},
		{URL: "https://imoti.net/bg/obiavi", Label: "imoti.net", Selector: "span.counter"},
		{URL: "https://www.domaza.bg/", Label: "Domaza", Selector: "div.hits"},
		{URL: "https://www.franksalt.com.mt/", Label: "Frank Salt", Selector: "h3:has-text('Properties')"},
		{URL: "https://www.dhalia.com/", Label: "Dhalia", Selector: "div.total-count"},
		{URL: "https://www.olx.ba/nekretnine", Label: "OLX.ba", Selector: "h1"},
		{URL: "https://www.nekretnine.ba/", Label: "Nekretnine.ba", Keywords: []string{"nekretnin", "oglasa", "oglasi"}},
	}
}

// Dir returns $XDG_CONFIG_HOME/lstcnt, falling back to ~/.config/lstcnt.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error finding home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads configFile, or config.toml from Dir when configFile is empty.
// A missing default file is not an error; a missing explicit file is.
// LSTCNT_* environment variables override both, e.g. LSTCNT_FETCH_TIMEOUT.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if !v.IsSet("sites") {
		cfg.Sites = DefaultSites()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override keys
// absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("fetch.backend", d.Fetch.Backend)
	v.SetDefault("fetch.mode", d.Fetch.Mode)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.browser_agent", d.Fetch.BrowserAgent)
	v.SetDefault("fetch.accept_language", d.Fetch.AcceptLanguage)
	v.SetDefault("fetch.follow_redirects", d.Fetch.FollowRedirects)
	v.SetDefault("fetch.max_redirects", d.Fetch.MaxRedirects)
	v.SetDefault("fetch.wait_for_selector", d.Fetch.WaitForSelector)
	v.SetDefault("fetch.settle_delay_ms", d.Fetch.SettleDelayMS)
	v.SetDefault("fetch.reader_api_key", d.Fetch.ReaderAPIKey)

	v.SetDefault("browser.default", d.Browser.Default)
	v.SetDefault("browser.cookies.enabled", d.Browser.Cookies.Enabled)
	v.SetDefault("browser.cookies.domains", d.Browser.Cookies.Domains)
	v.SetDefault("browser.cookies.exclude", d.Browser.Cookies.Exclude)

	v.SetDefault("extraction.min_digits", d.Extraction.MinDigits)
	v.SetDefault("extraction.text_mode", d.Extraction.TextMode)
	v.SetDefault("extraction.default_keywords", d.Extraction.DefaultKeywords)

	v.SetDefault("parallel.max_concurrency", d.Parallel.MaxConcurrency)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

var (
	backends    = []string{"http", "chrome", "reader"}
	fetchModes  = []string{"auto", "static", "javascript"}
	formats     = []string{"text", "json", "yaml"}
	textModes   = []string{"full", "readability"}
	logLevels   = []string{"trace", "debug", "info", "warn", "error", "disabled"}
	browserKind = []string{"auto", "chrome", "firefox", "safari", "zen"}
)

func oneOf(field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s %q (expected one of %s)", field, value, strings.Join(allowed, ", "))
}

// Validate checks enumerations and ranges. Site entries are validated when
// the registry is built.
func (c *Config) Validate() error {
	checks := []error{
		oneOf("fetch.backend", c.Fetch.Backend, backends),
		oneOf("fetch.mode", c.Fetch.Mode, fetchModes),
		oneOf("output.format", c.Output.Format, formats),
		oneOf("extraction.text_mode", c.Extraction.TextMode, textModes),
		oneOf("logging.level", c.Logging.Level, logLevels),
		oneOf("browser.default", c.Browser.Default, browserKind),
	}
	if c.Fetch.Timeout <= 0 {
		checks = append(checks, fmt.Errorf("fetch.timeout must be positive, got %d", c.Fetch.Timeout))
	}
	if c.Extraction.MinDigits < 1 {
		checks = append(checks, fmt.Errorf("extraction.min_digits must be at least 1, got %d", c.Extraction.MinDigits))
	}
	if c.Parallel.MaxConcurrency < 1 {
		checks = append(checks, fmt.Errorf("parallel.max_concurrency must be at least 1, got %d", c.Parallel.MaxConcurrency))
	}
	return errors.Join(checks...)
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.Timeout) * time.Second
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Fetch.SettleDelayMS) * time.Millisecond
}

// Strategy converts a site entry into its extraction strategy. An explicit
// text_filter takes precedence over one embedded in the selector.
func (s SiteConfig) Strategy() extractor.Strategy {
	switch {
	case s.Unsupported:
		return extractor.Unsupported()
	case s.Selector != "":
		locator, filter := extractor.ParseLocator(s.Selector)
		if s.TextFilter != "" {
			filter = s.TextFilter
		}
		return extractor.Selector(locator, filter)
	case len(s.Keywords) > 0:
		return extractor.KeywordProximity(s.Keywords...)
	}
	return extractor.Strategy{}
}

func (c *Config) ToSources() []registry.Source {
	sources := make([]registry.Source, 0, len(c.Sites))
	for _, s := range c.Sites {
		sources = append(sources, registry.Source{
			URL:      strings.TrimSpace(s.URL),
			Label:    s.Label,
			Strategy: s.Strategy(),
		})
	}
	return sources
}

// Registry builds the validated site registry.
func (c *Config) Registry() (*registry.Registry, error) {
	reg, err := registry.New(c.ToSources(), c.Extraction.DefaultKeywords)
	if err != nil {
		return nil, fmt.Errorf("invalid site table: %w", err)
	}
	return reg, nil
}

// CreateExampleConfig writes c as TOML to configPath.
func (c *Config) CreateExampleConfig(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	body, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	header := "# lstcnt configuration file\n# Every key can be overridden with LSTCNT_<SECTION>_<KEY>.\n\n"
	return os.WriteFile(configPath, append([]byte(header), body...), 0644)
}

// MarshalSites encodes just the site table, as accepted under [[sites]].
func MarshalSites(sites []SiteConfig) ([]byte, error) {
	return toml.Marshal(struct {
		Sites []SiteConfig `toml:"sites"`
	}{sites})
}
