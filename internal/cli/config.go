package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yildizm/DenseView/internal/config"
	"gopkg.in/yaml.v3"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage DenseView configuration",
		Long: `Manage DenseView configuration files and settings.

The config command provides subcommands for initializing, viewing,
validating, and locating configuration files.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new DenseView configuration file with default values.

By default, creates a full configuration file with all options and comments.
Use --minimal for a compact configuration with only essential settings.`,
		Example: `  # Create full config in current directory
  denseview config init

  # Create minimal config
  denseview config init --minimal

  # Create config at specific path
  denseview config init --output ~/.config/denseview/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".denseview.yaml"
			}

			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			content := config.SampleConfig()
			if minimal {
				content = config.MinimalSampleConfig()
			}

			if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			out := cmd.OutOrStdout()
			printStatus(out, "success", "Configuration file created at: %s", outputPath)
			if minimal {
				printStatus(out, "info", "Created minimal configuration with essential settings")
			} else {
				printStatus(out, "info", "Created full configuration with all options and documentation")
			}
			return nil
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for config file (default: .denseview.yaml)")
	initCmd.Flags().BoolVarP(&minimal, "minimal", "m", false, "create minimal configuration")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	return initCmd
}

func newConfigShowCommand() *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration after loading from all sources.

Shows the merged configuration including defaults, config files,
environment variable overrides and global flags.`,
		Example: `  # Show config in YAML format
  denseview config show

  # Show config in JSON format
  denseview config show --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config to YAML: %w", err)
				}
				fmt.Fprint(out, string(data))
			default:
				return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
			}
			return nil
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")

	return showCmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the DenseView configuration for syntax and semantic errors.

Checks for valid YAML syntax, a reachable-looking endpoint URL, sane chart
dimensions and known output formats and themes.`,
		Example: `  # Validate current config
  denseview config validate

  # Validate specific config file
  denseview config validate --config /path/to/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				printStatus(out, "error", "Configuration validation failed:")
				fmt.Fprintf(out, "   %v\n", err)
				return err
			}

			printStatus(out, "success", "Configuration is valid")
			printStatus(out, "statistics", "Configuration summary:")
			fmt.Fprintf(out, "   Version: %s\n", cfg.Version)
			fmt.Fprintf(out, "   Endpoint: %s\n", cfg.Predict.Endpoint)
			fmt.Fprintf(out, "   Classes: %d to %d\n", cfg.Predict.MinClasses, cfg.Predict.MaxClasses)
			fmt.Fprintf(out, "   Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "   Watch Extensions: %d configured\n", len(cfg.Watch.Extensions))
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Long: `Display the list of paths DenseView searches for configuration files.

Shows the search order and indicates which files exist.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			printStatus(out, "folder", "Configuration file search paths (in priority order):")
			fmt.Fprintln(out)

			priority := []string{"Highest", "Medium", "Lowest"}
			for i, path := range config.GetConfigPaths() {
				exists := " (not found)"
				if fileExists(path) {
					exists = " (exists)"
				}
				fmt.Fprintf(out, "  %d. %s%s\n", i+1, path, exists)
				if i < len(priority) {
					fmt.Fprintf(out, "     Priority: %s\n", priority[i])
				}
				fmt.Fprintln(out)
			}

			if current, found := config.FindConfigFile(); found {
				printStatus(out, "focus", "Current config file: %s", current)
			} else {
				printStatus(out, "info", "No config file found, using defaults")
			}

			fmt.Fprintln(out)
			printStatus(out, "help", "Environment variables with %s prefix override file settings", config.EnvPrefix)
		},
	}
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
