// Package config handles configuration loading and validation for fairqa.
package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/peekknuf/fairqa/internal/dataset"
	"github.com/peekknuf/fairqa/internal/metric"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".fairqa"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// EnvPrefix prefixes environment overrides, e.g. FAIRQA_REPORT_OUTPUT.
	EnvPrefix = "FAIRQA"
)

// Config holds all configuration for a report run.
type Config struct {
	// Dataset is the current dataset.
	Dataset DatasetConfig `mapstructure:"dataset"`
	// Reference is an optional baseline dataset for regression tests.
	Reference DatasetConfig `mapstructure:"reference"`
	// Report controls report output and execution.
	Report ReportConfig `mapstructure:"report"`
	// Metrics lists the fairness metrics in report order.
	Metrics []MetricConfig `mapstructure:"metrics"`
	// Logging configures the process logger.
	Logging LoggingConfig `mapstructure:"logging"`
}

// DatasetConfig describes a dataset file and its row filter.
type DatasetConfig struct {
	Path      string       `mapstructure:"path"`
	Delimiter string       `mapstructure:"delimiter"`
	Sheet     string       `mapstructure:"sheet"`
	TrimSpace bool         `mapstructure:"trim_space"`
	Filter    FilterConfig `mapstructure:"filter"`
}

// FilterConfig keeps rows whose Column value is one of Values.
type FilterConfig struct {
	Column string   `mapstructure:"column"`
	Values []string `mapstructure:"values"`
}

// ReportConfig holds report output and execution settings.
type ReportConfig struct {
	Output        string        `mapstructure:"output"`
	Title         string        `mapstructure:"title"`
	PositiveLabel float64       `mapstructure:"positive_label"`
	Parallelism   int           `mapstructure:"parallelism"`
	MetricTimeout time.Duration `mapstructure:"metric_timeout"`
	DataSummary   bool          `mapstructure:"data_summary"`
}

// MetricConfig declares one metric.
type MetricConfig struct {
	Kind                     string `mapstructure:"kind"`
	TargetColumn             string `mapstructure:"target_column"`
	ProtectedAttributeColumn string `mapstructure:"protected_attribute_column"`
	PrivilegedGroup          string `mapstructure:"privileged_group"`
	CategoryColumn           string `mapstructure:"category_column"`
}

// LoggingConfig selects the log level and format (text or json).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file, environment variables, and defaults.
// An empty path searches for .fairqa.yaml in the working directory; a
// missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable for a report run.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if err := c.Dataset.validate("dataset"); err != nil {
		return err
	}
	if c.Reference.Path != "" {
		if err := c.Reference.validate("reference"); err != nil {
			return err
		}
	}
	if c.Report.Output == "" {
		return fmt.Errorf("report.output is required")
	}
	if c.Report.Parallelism < 1 {
		return fmt.Errorf("report.parallelism must be at least 1, got %d", c.Report.Parallelism)
	}
	if c.Report.MetricTimeout < 0 {
		return fmt.Errorf("report.metric_timeout must not be negative")
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("at least one metric must be configured")
	}
	if _, err := c.Specs(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", c.Logging.Format)
	}
	return nil
}

func (d DatasetConfig) validate(section string) error {
	if utf8.RuneCountInString(d.Delimiter) > 1 {
		return fmt.Errorf("%s.delimiter must be a single character, got %q", section, d.Delimiter)
	}
	if d.Filter.Column != "" && len(d.Filter.Values) == 0 {
		return fmt.Errorf("%s.filter.values is required when filter.column is set", section)
	}
	return nil
}

// LoadOptions converts the dataset section into loader options.
func (d DatasetConfig) LoadOptions() dataset.LoadOptions {
	opts := dataset.LoadOptions{Sheet: d.Sheet, TrimSpace: d.TrimSpace}
	if d.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(d.Delimiter)
	}
	return opts
}

// Specs converts the metric section into metric specs, in order.
func (c *Config) Specs() ([]metric.Spec, error) {
	specs := make([]metric.Spec, 0, len(c.Metrics))
	for i, m := range c.Metrics {
		kind, err := metric.ParseKind(m.Kind)
		if err != nil {
			return nil, fmt.Errorf("metric %d: %w", i, err)
		}
		spec := metric.Spec{
			Kind:                     kind,
			TargetColumn:             m.TargetColumn,
			ProtectedAttributeColumn: m.ProtectedAttributeColumn,
			PrivilegedGroup:          m.PrivilegedGroup,
			CategoryColumn:           m.CategoryColumn,
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("metric %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.delimiter", ",")
	v.SetDefault("report.output", "fairness_report.html")
	v.SetDefault("report.title", "Fairness Report")
	v.SetDefault("report.positive_label", 1)
	v.SetDefault("report.parallelism", 1)
	v.SetDefault("report.metric_timeout", "0s")
	v.SetDefault("report.data_summary", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
