package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yildizm/DenseView/internal/chart"
	"github.com/yildizm/DenseView/internal/formatter"
	"github.com/yildizm/DenseView/internal/logger"
	"github.com/yildizm/DenseView/internal/selector"
	"github.com/yildizm/DenseView/internal/store"
	"github.com/yildizm/DenseView/internal/upload"
)

var (
	predictOutput     string
	predictOutputFile string
	predictTimeout    time.Duration
	predictChart      bool
)

func newPredictCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict FILE",
		Short: "Classify one image and print the scores",
		Long: `Upload FILE to the classification service and print the returned scores.

The exit status is non-zero when the request fails or the service answers
with something that is not a usable prediction.

Examples:
  denseview predict scan.png
  denseview predict --output json scan.png
  denseview predict --chart --endpoint http://model:8000 scan.png`,
		Args: cobra.ExactArgs(1),
		RunE: runPredict,
	}

	cmd.Flags().StringVarP(&predictOutput, "output", "o", "", "output format (text, json, csv, markdown)")
	cmd.Flags().StringVar(&predictOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().DurationVar(&predictTimeout, "timeout", 0, "request timeout (overrides config, 0 keeps it)")
	cmd.Flags().BoolVar(&predictChart, "chart", false, "draw the bar chart after text output")

	return cmd
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if predictTimeout > 0 {
		cfg.Predict.Timeout = predictTimeout
	}
	format := predictOutput
	if format == "" {
		format = cfg.Output.Format
	}

	log := logger.NewWithWriter("predict", verboseChecker(cfg), cmd.ErrOrStderr())
	defer func() { _ = log.Sync() }()

	file, err := selector.Load(args[0], cfg.Predict.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	if !file.MatchesHint() {
		log.Warn("%s looks like %s, not an image", file.Name, file.MIMEType)
	}

	client, err := newPredictClient(cfg)
	if err != nil {
		return err
	}
	ctrl := upload.New(client, store.New(), log.WithComponent("upload"))
	ctrl.SelectFile(file)

	started := time.Now()
	outcome, err := ctrl.Submit(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	elapsed := time.Since(started)

	opts := chart.OptionsFromConfig(cfg)
	series, err := chart.SeriesWithOptions(ctrl.Store().Get(), opts)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	color := colorEnabled(cfg)
	if predictOutputFile != "" {
		// #nosec G304 - path comes from the user
		f, err := os.Create(predictOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
		color = false
	}

	fmtr, err := formatter.New(format, color)
	if err != nil {
		return err
	}
	data, err := fmtr.Format(&formatter.Report{
		File:        file.Name,
		MIMEType:    file.MIMEType,
		Bytes:       file.Size(),
		RequestID:   outcome.RequestID,
		Elapsed:     elapsed,
		Series:      series,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return err
	}

	if predictChart && isTextFormat(format) {
		opts.NoColor = !color
		fmt.Fprintln(out)
		fmt.Fprintln(out, chart.Render(series, opts))
	}
	return nil
}

func isTextFormat(format string) bool {
	return format == "" || format == "text"
}

