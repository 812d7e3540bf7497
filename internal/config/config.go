// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// Driver backends.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// Oracle providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// DefaultOpenAIEndpoint is the chat completions endpoint used when none is configured.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// Captcha providers.
const (
	CaptchaNone       = "none"
	CaptchaTwoCaptcha = "2captcha"
)

// Config is the immutable, validated configuration of one process. It is built
// once from viper and handed to every component at construction.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Proxy     ProxyConfig     `mapstructure:"proxy" yaml:"proxy"`
	Timeouts  TimeoutConfig   `mapstructure:"timeouts" yaml:"timeouts"`
	Pacing    PacingConfig    `mapstructure:"pacing" yaml:"pacing"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Oracle    OracleConfig    `mapstructure:"oracle" yaml:"oracle"`
	Captcha   CaptchaConfig   `mapstructure:"captcha" yaml:"captcha"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Profile   schemas.Profile `mapstructure:"profile" yaml:"profile"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig selects the driver backend and its fingerprint.
type BrowserConfig struct {
	Driver          string   `mapstructure:"driver" yaml:"driver"`
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	Stealth         bool     `mapstructure:"stealth" yaml:"stealth"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	ViewportWidth   int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight  int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	ViewportJitter  int      `mapstructure:"viewport_jitter" yaml:"viewport_jitter"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath        string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// ProxyConfig is an optional upstream proxy. Username and password are
// mandatory together whenever URL is set.
type ProxyConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// Enabled reports whether a proxy is configured.
func (p ProxyConfig) Enabled() bool { return strings.TrimSpace(p.URL) != "" }

// TimeoutConfig bounds every wait the pipeline performs.
type TimeoutConfig struct {
	Navigation time.Duration `mapstructure:"navigation" yaml:"navigation"`
	FormWait   time.Duration `mapstructure:"form_wait" yaml:"form_wait"`
	FieldWait  time.Duration `mapstructure:"field_wait" yaml:"field_wait"`
	Completion time.Duration `mapstructure:"completion" yaml:"completion"`
	Settle     time.Duration `mapstructure:"settle" yaml:"settle"`
	Captcha    time.Duration `mapstructure:"captcha" yaml:"captcha"`
}

// DiscoveryConfig holds the link relevance patterns.
type DiscoveryConfig struct {
	IncludePattern string `mapstructure:"include_pattern" yaml:"include_pattern"`
	ExcludePattern string `mapstructure:"exclude_pattern" yaml:"exclude_pattern"`
	// SameSiteOnly drops candidate links outside the start URL's registrable domain.
	SameSiteOnly bool `mapstructure:"same_site_only" yaml:"same_site_only"`
}

// OracleConfig selects and tunes the classification/mapping provider.
type OracleConfig struct {
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	Model          string        `mapstructure:"model" yaml:"model"`
	Temperature    float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	APITimeout     time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	MaxElapsed     time.Duration `mapstructure:"max_elapsed" yaml:"max_elapsed"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	CacheSize      int           `mapstructure:"cache_size" yaml:"cache_size"`
}

// CaptchaConfig configures the challenge solver.
type CaptchaConfig struct {
	Provider     string        `mapstructure:"provider" yaml:"provider"`
	Token        string        `mapstructure:"token" yaml:"token"`
	Endpoint     string        `mapstructure:"endpoint" yaml:"endpoint"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// OutputConfig controls diagnostic artifacts.
type OutputConfig struct {
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// SetDefaults registers every default with viper.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reachout")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1200)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.viewport_jitter", 200)
	v.SetDefault("browser.ignore_tls_errors", false)

	// -- Timeouts --
	v.SetDefault("timeouts.navigation", "45s")
	v.SetDefault("timeouts.form_wait", "10s")
	v.SetDefault("timeouts.field_wait", "2s")
	v.SetDefault("timeouts.completion", "5s")
	v.SetDefault("timeouts.settle", "3s")
	v.SetDefault("timeouts.captcha", "3m")

	setHumanoidDefaults(v)

	// -- Discovery --
	v.SetDefault("discovery.include_pattern", `(?i)(contact|get.*touch|reach|support|help)`)
	v.SetDefault("discovery.exclude_pattern", `(?i)blog`)
	v.SetDefault("discovery.same_site_only", false)

	// -- Oracle --
	v.SetDefault("oracle.provider", ProviderOpenAI)
	v.SetDefault("oracle.endpoint", DefaultOpenAIEndpoint)
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.temperature", 0.0)
	v.SetDefault("oracle.max_tokens", 2048)
	v.SetDefault("oracle.api_timeout", "60s")
	v.SetDefault("oracle.max_elapsed", "2m")
	v.SetDefault("oracle.rate_limit_rps", 1.0)
	v.SetDefault("oracle.rate_limit_burst", 2)
	v.SetDefault("oracle.cache_size", 64)

	// -- Captcha --
	v.SetDefault("captcha.provider", CaptchaTwoCaptcha)
	v.SetDefault("captcha.endpoint", "https://2captcha.com")
	v.SetDefault("captcha.poll_interval", "5s")

	// -- Output --
	v.SetDefault("output.screenshot_dir", "")

	// -- Profile --
	p := schemas.DefaultProfile()
	v.SetDefault("profile.name", p.Name)
	v.SetDefault("profile.first_name", p.FirstName)
	v.SetDefault("profile.last_name", p.LastName)
	v.SetDefault("profile.email", p.Email)
	v.SetDefault("profile.message", p.Message)
	v.SetDefault("profile.company", p.Company)
	v.SetDefault("profile.phone", p.Phone)
	v.SetDefault("profile.subject", p.Subject)
	v.SetDefault("profile.unknown", p.Unknown)
	v.SetDefault("profile.location", p.Location)
}

// BindLegacyEnv binds the bare environment variable names operators already
// export for this tool, alongside the REACHOUT_ prefixed ones.
func BindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("oracle.api_key", "REACHOUT_ORACLE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("oracle.endpoint", "REACHOUT_ORACLE_ENDPOINT", "OPENAI_URL")
	_ = v.BindEnv("oracle.model", "REACHOUT_ORACLE_MODEL", "OPENAI_MODEL")
	_ = v.BindEnv("browser.headless", "REACHOUT_BROWSER_HEADLESS", "HEADLESS")
	_ = v.BindEnv("proxy.url", "REACHOUT_PROXY_URL", "PROXY_URL")
	_ = v.BindEnv("proxy.username", "REACHOUT_PROXY_USERNAME", "PROXY_USERNAME")
	_ = v.BindEnv("proxy.password", "REACHOUT_PROXY_PASSWORD", "PROXY_PASSWORD")
	_ = v.BindEnv("captcha.token", "REACHOUT_CAPTCHA_TOKEN", "TWOCAPTCHA_TOKEN")
}

// NewDefaultConfig returns the configuration produced by the defaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.applyDerived()
	return &cfg
}

// NewConfigFromViper decodes and validates the configuration.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	BindLegacyEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDerived fills values that depend on the runtime environment.
func (c *Config) applyDerived() {
	c.Browser.Driver = strings.ToLower(strings.TrimSpace(c.Browser.Driver))
	c.Oracle.Provider = strings.ToLower(strings.TrimSpace(c.Oracle.Provider))
	c.Captcha.Provider = strings.ToLower(strings.TrimSpace(c.Captcha.Provider))

	dir := strings.TrimSpace(c.Output.ScreenshotDir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "screenshots")
	}
	if expanded, err := homedir.Expand(dir); err == nil {
		dir = expanded
	}
	c.Output.ScreenshotDir = dir
	c.Profile = schemas.DefaultProfile().Merge(c.Profile)
}

// Validate checks the configuration for required fields and sane values. Every
// failure wraps schemas.ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Proxy.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Browser.Driver {
	case DriverChromedp, DriverRod:
	default:
		errs = append(errs, fmt.Errorf("browser.driver must be %q or %q, got %q", DriverChromedp, DriverRod, c.Browser.Driver))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("browser viewport dimensions must be positive"))
	}
	if c.Browser.ViewportJitter < 0 {
		errs = append(errs, fmt.Errorf("browser.viewport_jitter must not be negative"))
	}

	if c.Timeouts.FormWait <= 0 || c.Timeouts.FieldWait <= 0 || c.Timeouts.Completion <= 0 || c.Timeouts.Navigation <= 0 {
		errs = append(errs, fmt.Errorf("timeouts.navigation, form_wait, field_wait and completion must be positive"))
	}
	if c.Timeouts.Settle < 0 {
		errs = append(errs, fmt.Errorf("timeouts.settle must not be negative"))
	}

	if err := c.Pacing.Validate(); err != nil {
		errs = append(errs, err)
	}

	if _, err := regexp.Compile(c.Discovery.IncludePattern); err != nil || c.Discovery.IncludePattern == "" {
		errs = append(errs, fmt.Errorf("discovery.include_pattern is not a valid expression"))
	}
	if c.Discovery.ExcludePattern != "" {
		if _, err := regexp.Compile(c.Discovery.ExcludePattern); err != nil {
			errs = append(errs, fmt.Errorf("discovery.exclude_pattern is not a valid expression: %w", err))
		}
	}

	if err := c.Oracle.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Captcha.Provider {
	case CaptchaNone, CaptchaTwoCaptcha, "":
	default:
		errs = append(errs, fmt.Errorf("captcha.provider must be %q or %q, got %q", CaptchaTwoCaptcha, CaptchaNone, c.Captcha.Provider))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", schemas.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate enforces that credentials accompany a proxy URL.
func (p ProxyConfig) Validate() error {
	if !p.Enabled() {
		return nil
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("proxy.url %q is not a valid proxy address", p.URL)
	}
	if p.Username == "" || p.Password == "" {
		return fmt.Errorf("proxy.username and proxy.password are required when proxy.url is set")
	}
	return nil
}

// Validate checks the oracle provider settings.
func (o OracleConfig) Validate() error {
	switch o.Provider {
	case ProviderOpenAI:
		if o.Endpoint == "" {
			return fmt.Errorf("oracle.endpoint is required for the %s provider", o.Provider)
		}
	case ProviderGemini, ProviderAnthropic:
		if o.APIKey == "" {
			return fmt.Errorf("oracle.api_key is required for the %s provider", o.Provider)
		}
	default:
		return fmt.Errorf("oracle.provider must be one of openai, gemini, anthropic, got %q", o.Provider)
	}
	if o.Model == "" {
		return fmt.Errorf("oracle.model is required")
	}
	if o.RateLimitRPS < 0 || o.CacheSize < 0 {
		return fmt.Errorf("oracle.rate_limit_rps and oracle.cache_size must not be negative")
	}
	return nil
}
