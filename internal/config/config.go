// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Executor ExecutorConfig `mapstructure:"executor" yaml:"executor"`
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// AppConfig identifies the target application and its designated window.
type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Path        string `mapstructure:"path" yaml:"path"`
	ProcessName string `mapstructure:"process_name" yaml:"process_name"`
	WindowTitle string `mapstructure:"window_title" yaml:"window_title"`
}

// DetectorConfig tunes the corner based visual state detector.
type DetectorConfig struct {
	// TemplateDir is the directory holding the template image assets.
	TemplateDir string `mapstructure:"template_dir" yaml:"template_dir"`
	// OpenTemplate names the single-point "application is open" template.
	OpenTemplate string `mapstructure:"open_template" yaml:"open_template"`
	// CornerTemplates maps corner tags (top_left, top_right, bottom_left,
	// bottom_right) to template file names. Corners without an entry are not
	// checked; an incomplete required set triggers the degraded fallback.
	CornerTemplates map[string]string `mapstructure:"corner_templates" yaml:"corner_templates"`
	// Threshold is the minimum match confidence in [0,1].
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	// RegionSize is the side length in pixels of each corner search region.
	RegionSize int `mapstructure:"region_size" yaml:"region_size"`
}

// DelayPolicy selects how the executor paces retry attempts.
type DelayPolicy string

const (
	DelayFixed       DelayPolicy = "fixed"
	DelayExponential DelayPolicy = "exponential"
)

// ExecutorConfig tunes the perform/verify/recover retry protocol.
type ExecutorConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	Delay      DelayPolicy   `mapstructure:"delay" yaml:"delay"`
	BaseDelay  time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	// MaxDelay caps the exponential policy so a workflow can never hang
	// indefinitely on one instruction.
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// InputConfig tunes the synthetic pointer trajectory.
type InputConfig struct {
	// Steps is the number of interpolation points per pointer move.
	Steps int `mapstructure:"steps" yaml:"steps"`
	// MoveDuration is the total wall time budget of one pointer move.
	MoveDuration time.Duration `mapstructure:"move_duration" yaml:"move_duration"`
}

// HistoryConfig configures the optional PostgreSQL run history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// ReportConfig selects the run report output.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "screenpilot")
	v.SetDefault("logger.log_file", "screenpilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Detector --
	v.SetDefault("detector.template_dir", "assets/templates")
	v.SetDefault("detector.open_template", "open.png")
	v.SetDefault("detector.threshold", 0.8)
	v.SetDefault("detector.region_size", 200)

	// -- Executor --
	v.SetDefault("executor.max_retries", 3)
	v.SetDefault("executor.delay", string(DelayFixed))
	v.SetDefault("executor.base_delay", "500ms")
	v.SetDefault("executor.max_delay", "5s")

	// -- Input --
	v.SetDefault("input.steps", 24)
	v.SetDefault("input.move_duration", "350ms")

	// -- History --
	v.SetDefault("history.enabled", false)

	// -- Report --
	v.SetDefault("report.format", "text")
	v.SetDefault("report.output", "stdout")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with static defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Template paths may be given relative to the user's home.
	if expanded, err := homedir.Expand(cfg.Detector.TemplateDir); err == nil {
		cfg.Detector.TemplateDir = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector configuration invalid: %w", err)
	}
	if err := c.Executor.Validate(); err != nil {
		return fmt.Errorf("executor configuration invalid: %w", err)
	}
	if c.History.Enabled && c.History.URL == "" {
		return fmt.Errorf("history.url is required when history.enabled is true")
	}
	if c.Input.Steps <= 0 {
		return fmt.Errorf("input.steps must be a positive integer")
	}
	return nil
}

// Validate checks the detector settings.
func (d *DetectorConfig) Validate() error {
	if d.Threshold < 0.0 || d.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0")
	}
	if d.RegionSize <= 0 {
		return fmt.Errorf("region_size must be a positive integer")
	}
	for tag := range d.CornerTemplates {
		switch tag {
		case "top_left", "top_right", "bottom_left", "bottom_right":
		default:
			return fmt.Errorf("unknown corner tag %q in corner_templates", tag)
		}
	}
	return nil
}

// Validate checks the executor settings.
func (e *ExecutorConfig) Validate() error {
	if e.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be a positive integer")
	}
	switch e.Delay {
	case DelayFixed, DelayExponential:
	default:
		return fmt.Errorf("delay must be %q or %q", DelayFixed, DelayExponential)
	}
	if e.BaseDelay <= 0 {
		return fmt.Errorf("base_delay must be a positive duration")
	}
	if e.MaxDelay < e.BaseDelay {
		return fmt.Errorf("max_delay must be at least base_delay")
	}
	return nil
}
