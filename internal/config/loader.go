package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "DENSEVIEW_"

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.denseview.yaml",               // Project-specific config (highest priority)
	"~/.config/denseview/config.yaml", // User config
	"/etc/denseview/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	lookupEnv   func(string) (string, bool)
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		lookupEnv:   os.LookupEnv,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.denseview.yaml
// 4. ~/.config/denseview/config.yaml
// 5. /etc/denseview/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		"PREDICT_ENDPOINT":         func(v string) error { config.Predict.Endpoint = v; return nil },
		"PREDICT_TIMEOUT":          func(v string) error { return parseDuration(v, &config.Predict.Timeout) },
		"PREDICT_MAX_UPLOAD_BYTES": func(v string) error { return parseInt64(v, &config.Predict.MaxUploadBytes) },
		"PREDICT_MIN_CLASSES":      func(v string) error { return parseInt(v, &config.Predict.MinClasses) },
		"PREDICT_MAX_CLASSES":      func(v string) error { return parseInt(v, &config.Predict.MaxClasses) },
		"PREDICT_FIELD_NAME":       func(v string) error { config.Predict.FieldName = v; return nil },

		"CHART_HEIGHT":       func(v string) error { return parseInt(v, &config.Chart.Height) },
		"CHART_BAR_WIDTH":    func(v string) error { return parseInt(v, &config.Chart.BarWidth) },
		"CHART_GAP":          func(v string) error { return parseInt(v, &config.Chart.Gap) },
		"CHART_COLOR":        func(v string) error { config.Chart.Color = v; return nil },
		"CHART_GRID_LINES":   func(v string) error { return parseInt(v, &config.Chart.GridLines) },
		"CHART_LABEL_PREFIX": func(v string) error { config.Chart.LabelPrefix = v; return nil },
		"CHART_ARIA_LABEL":   func(v string) error { config.Chart.AriaLabel = v; return nil },

		"OUTPUT_FORMAT":     func(v string) error { config.Output.Format = v; return nil },
		"OUTPUT_COLOR_MODE": func(v string) error { config.Output.ColorMode = v; return nil },
		"OUTPUT_VERBOSE":    func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"OUTPUT_THEME":      func(v string) error { config.Output.Theme = v; return nil },
		"OUTPUT_LOG_FILE":   func(v string) error { config.Output.LogFile = v; return nil },

		"WATCH_AUTO_SUBMIT": func(v string) error { return parseBool(v, &config.Watch.AutoSubmit) },
	}

	for suffix, setter := range envMappings {
		envVar := EnvPrefix + suffix
		if value, ok := l.lookupEnv(envVar); ok && value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// comma-separated list
	if exts, ok := l.lookupEnv(EnvPrefix + "WATCH_EXTENSIONS"); ok && exts != "" {
		parts := strings.Split(exts, ",")
		config.Watch.Extensions = config.Watch.Extensions[:0]
		for _, ext := range parts {
			if ext = strings.TrimSpace(ext); ext != "" {
				config.Watch.Extensions = append(config.Watch.Extensions, ext)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination.
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergePredictConfig(&dst.Predict, &src.Predict)
	mergeChartConfig(&dst.Chart, &src.Chart)
	mergeOutputConfig(&dst.Output, &src.Output)
	mergeWatchConfig(&dst.Watch, &src.Watch)
}

func mergePredictConfig(dst, src *PredictConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxUploadBytes != 0 {
		dst.MaxUploadBytes = src.MaxUploadBytes
	}
	if src.MinClasses != 0 {
		dst.MinClasses = src.MinClasses
	}
	if src.MaxClasses != 0 {
		dst.MaxClasses = src.MaxClasses
	}
	if src.FieldName != "" {
		dst.FieldName = src.FieldName
	}
}

func mergeChartConfig(dst, src *ChartConfig) {
	if src.Height != 0 {
		dst.Height = src.Height
	}
	if src.BarWidth != 0 {
		dst.BarWidth = src.BarWidth
	}
	if src.Gap != 0 {
		dst.Gap = src.Gap
	}
	if src.Color != "" {
		dst.Color = src.Color
	}
	if src.GridLines != 0 {
		dst.GridLines = src.GridLines
	}
	if src.LabelPrefix != "" {
		dst.LabelPrefix = src.LabelPrefix
	}
	if src.AriaLabel != "" {
		dst.AriaLabel = src.AriaLabel
	}
}

func mergeOutputConfig(dst, src *OutputConfig) {
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.Theme != "" {
		dst.Theme = src.Theme
	}
	if src.LogFile != "" {
		dst.LogFile = src.LogFile
	}
	// YAML cannot tell an absent bool from false, so only true is merged.
	// Use DENSEVIEW_OUTPUT_VERBOSE=false to switch it back off.
	if src.Verbose {
		dst.Verbose = true
	}
}

func mergeWatchConfig(dst, src *WatchConfig) {
	if len(src.Extensions) > 0 {
		dst.Extensions = src.Extensions
	}
	if src.AutoSubmit {
		dst.AutoSubmit = true
	}
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseInt64(s string, dst *int64) error {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
