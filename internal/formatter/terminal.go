package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeImage(&b, report)
	f.writeScores(&b, report)

	return []byte(b.String()), nil
}

// writeHeader writes a boxed title
func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "Prediction Report"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

func (f *terminalFormatter) writeImage(b *strings.Builder, report *Report) {
	b.WriteString(termfmt.GetEmoji("info", f.opts) + " Image\n")

	items := []termfmt.TreeItem{
		{Label: "File", Value: report.File},
		{Label: "Type", Value: report.MIMEType},
		{Label: "Size", Value: formatBytes(report.Bytes)},
	}
	if report.RequestID != "" {
		items = append(items, termfmt.TreeItem{Label: "Request", Value: report.RequestID})
	}
	items = append(items, termfmt.TreeItem{Label: "Elapsed", Value: formatElapsed(report.Elapsed), Last: true})

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeScores(b *strings.Builder, report *Report) {
	b.WriteString(termfmt.GetEmoji("statistics", f.opts) + " Prediction Results\n")

	if len(report.Series) == 0 {
		b.WriteString("  No prediction available\n")
		return
	}

	width := 0
	for _, bar := range report.Series {
		width = max(width, len(bar.Label))
	}
	for _, bar := range report.Series {
		fmt.Fprintf(b, "  %-*s %s %.4f\n", width, bar.Label,
			termfmt.CreateConfidenceBar(clampUnit(bar.Score), f.opts), bar.Score)
	}

	if top, ok := report.Top(); ok {
		fmt.Fprintf(b, "\n%s Top class: %s (%.4f)\n", termfmt.GetEmoji("insight", f.opts), top.Label, top.Score)
	}
}
