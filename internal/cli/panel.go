package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yildizm/DenseView/internal/logger"
	"github.com/yildizm/DenseView/internal/store"
	"github.com/yildizm/DenseView/internal/ui"
	"github.com/yildizm/DenseView/internal/upload"
	"github.com/yildizm/DenseView/internal/watch"
)

var (
	panelWatchDir   string
	panelAutoSubmit bool
)

func newPanelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel [file]",
		Short: "Open the interactive prediction panel",
		Long: `Open the interactive panel. Choose an image, submit it with "s" and read the
class scores from the bar chart. Use left and right to inspect single bars.

With --watch the panel picks up images written into a directory. Add
--auto-submit to send them to the service as soon as they settle.

Examples:
  denseview panel
  denseview panel scan.png
  denseview panel --watch ./incoming --auto-submit`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPanel,
	}
	addPanelFlags(cmd)
	return cmd
}

func addPanelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&panelWatchDir, "watch", "w", "", "directory to watch for new images")
	cmd.Flags().BoolVar(&panelAutoSubmit, "auto-submit", false, "submit watched images automatically")
}

func runPanel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("auto-submit") {
		panelAutoSubmit = cfg.Watch.AutoSubmit
	}

	// the panel owns the terminal, so diagnostics go to a file
	path := cfg.Output.LogFile
	if path == "" {
		path = defaultLogPath()
	}
	f, err := logger.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	log := logger.NewWithWriter("panel", verboseChecker(cfg), f)
	defer func() { _ = log.Sync() }()

	client, err := newPredictClient(cfg)
	if err != nil {
		return err
	}
	ctrl := upload.New(client, store.New(), log.WithComponent("upload"))

	opts := ui.PanelOptions{
		Config:     cfg,
		Controller: ctrl,
		Logger:     log,
		AutoSubmit: panelAutoSubmit,
		NoColor:    !colorEnabled(cfg),
	}

	if len(args) == 1 {
		file, thumb, err := ui.LoadFile(args[0], cfg.Predict.MaxUploadBytes)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		ctrl.SelectFile(file)
		opts.Thumbnail = thumb
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if panelWatchDir != "" {
		w, err := watch.New(panelWatchDir, cfg.Watch.Extensions, log.WithComponent("watch"))
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn("Watcher stopped: %v", err)
			}
		}()
		opts.Watcher = w
	}

	log.Info("Panel started with endpoint %s", client.URL())
	return ui.PanelRun(ctx, opts)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
