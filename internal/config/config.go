package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Predict PredictConfig `yaml:"predict" json:"predict"`
	Chart   ChartConfig   `yaml:"chart" json:"chart"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
}

// PredictConfig configures the remote classification service
type PredictConfig struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint"`                 // base URL, /predict/ is appended
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`                   // 0 disables the client timeout
	MaxUploadBytes int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"` // local read guard
	MinClasses     int           `yaml:"min_classes" json:"min_classes"`
	MaxClasses     int           `yaml:"max_classes" json:"max_classes"`
	FieldName      string        `yaml:"field_name" json:"field_name"` // multipart part name
}

// ChartConfig configures the bar chart
type ChartConfig struct {
	Height      int    `yaml:"height" json:"height"`
	BarWidth    int    `yaml:"bar_width" json:"bar_width"`
	Gap         int    `yaml:"gap" json:"gap"`
	Color       string `yaml:"color" json:"color"`
	GridLines   int    `yaml:"grid_lines" json:"grid_lines"`
	LabelPrefix string `yaml:"label_prefix" json:"label_prefix"`
	AriaLabel   string `yaml:"aria_label" json:"aria_label"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	Format    string `yaml:"format" json:"format"`         // text|json|csv|markdown
	ColorMode string `yaml:"color_mode" json:"color_mode"` // auto|always|never
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	Theme     string `yaml:"theme" json:"theme"` // default|high-contrast|minimal
	LogFile   string `yaml:"log_file" json:"log_file"`
}

// WatchConfig configures directory watching in the panel
type WatchConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	AutoSubmit bool     `yaml:"auto_submit" json:"auto_submit"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Predict: PredictConfig{
			Endpoint:       "http://localhost:8000",
			Timeout:        0,
			MaxUploadBytes: 10 << 20,
			MinClasses:     2,
			MaxClasses:     16,
			FieldName:      "file",
		},
		Chart: ChartConfig{
			Height:      12,
			BarWidth:    9,
			Gap:         3,
			Color:       "#2563eb",
			GridLines:   4,
			LabelPrefix: "Class",
			AriaLabel:   "A bar chart showing data",
		},
		Output: OutputConfig{
			Format:    "text",
			ColorMode: "auto",
			Verbose:   false,
			Theme:     "default",
		},
		Watch: WatchConfig{
			Extensions: []string{".png", ".jpg", ".jpeg", ".gif"},
			AutoSubmit: false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validatePredictConfig(); err != nil {
		return err
	}
	if err := c.validateChartConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePredictConfig() error {
	if c.Predict.Endpoint == "" {
		return fmt.Errorf("predict endpoint is required")
	}
	if !strings.HasPrefix(c.Predict.Endpoint, "http://") && !strings.HasPrefix(c.Predict.Endpoint, "https://") {
		return fmt.Errorf("invalid predict endpoint: %s (must start with http:// or https://)", c.Predict.Endpoint)
	}
	if c.Predict.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Predict.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be greater than 0")
	}
	if c.Predict.MinClasses < 1 {
		return fmt.Errorf("min_classes must be greater than 0")
	}
	if c.Predict.MaxClasses < c.Predict.MinClasses {
		return fmt.Errorf("max_classes must be greater than or equal to min_classes")
	}
	if c.Predict.FieldName == "" {
		return fmt.Errorf("field_name is required")
	}
	return nil
}

func (c *Config) validateChartConfig() error {
	if c.Chart.Height < 2 {
		return fmt.Errorf("chart height must be at least 2")
	}
	if c.Chart.BarWidth < 1 {
		return fmt.Errorf("bar_width must be greater than 0")
	}
	if c.Chart.Gap < 0 {
		return fmt.Errorf("gap must be non-negative")
	}
	if c.Chart.GridLines < 0 {
		return fmt.Errorf("grid_lines must be non-negative")
	}
	if c.Chart.Color != "" && !hexColor.MatchString(c.Chart.Color) {
		return fmt.Errorf("invalid chart color: %s (must be #RRGGBB)", c.Chart.Color)
	}
	return nil
}

func (c *Config) validateOutputConfig() error {
	if c.Output.Format != "" {
		validFormats := map[string]bool{
			"csv":      true,
			"json":     true,
			"markdown": true,
			"text":     true,
		}
		if !validFormats[c.Output.Format] {
			return fmt.Errorf("invalid output format: %s (must be one of: csv, json, markdown, text)", c.Output.Format)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	if c.Output.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.Output.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.Output.Theme)
		}
	}
	return nil
}
