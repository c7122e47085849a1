package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/yildizm/DenseView/internal/config"
	"github.com/yildizm/DenseView/internal/emoji"
	"github.com/yildizm/DenseView/internal/logger"
	"github.com/yildizm/DenseView/internal/predict"
	"github.com/yildizm/DenseView/internal/ui"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	noEmoji   bool
	endpoint  string
	logFile   string
	themeName string
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "denseview",
		Short: "Terminal client for a remote image classifier",
		Long: `DenseView uploads a medical image to a classification service and shows
the returned class scores as a bar chart in the terminal.

Run without a subcommand to open the interactive panel. Use "predict" for a
one-shot prediction printed as text, JSON, CSV or Markdown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)
			ui.SetColorDisabled(noColor)
		},
		RunE: runPanel,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "classification service base URL")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "diagnostic log file")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "panel theme (default, high-contrast, minimal)")

	addPanelFlags(rootCmd)

	rootCmd.AddCommand(newPanelCommand())
	rootCmd.AddCommand(newPredictCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "DenseView %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig loads the configuration and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if endpoint != "" {
		cfg.Predict.Endpoint = endpoint
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if logFile != "" {
		cfg.Output.LogFile = logFile
	}
	if themeName != "" {
		cfg.Output.Theme = themeName
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.Output.ColorMode == "never" {
		ui.SetColorDisabled(true)
	}
	ui.SetThemeByName(cfg.Output.Theme)
	return cfg, nil
}

// newPredictClient builds the service client from cfg
func newPredictClient(cfg *config.Config) (*predict.Client, error) {
	return predict.New(predict.Config{
		Endpoint:   cfg.Predict.Endpoint,
		Timeout:    cfg.Predict.Timeout,
		FieldName:  cfg.Predict.FieldName,
		MinClasses: cfg.Predict.MinClasses,
		MaxClasses: cfg.Predict.MaxClasses,
	}, nil)
}

// colorEnabled reports whether command output may carry ANSI styling
func colorEnabled(cfg *config.Config) bool {
	switch cfg.Output.ColorMode {
	case "always":
		return !noColor
	case "never":
		return false
	default:
		return !ui.IsColorDisabled()
	}
}

// defaultLogPath is where the panel logs when no file is configured
func defaultLogPath() string {
	return filepath.Join(os.TempDir(), "denseview.log")
}

// verboseChecker reports the effective verbose setting of cfg
func verboseChecker(cfg *config.Config) logger.VerboseChecker {
	return logger.VerboseFunc(func() bool { return cfg.Output.Verbose })
}
