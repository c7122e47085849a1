package formatter

import (
	"fmt"
	"strings"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Prediction Report\n\n")
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	f.writeImageTable(&b, report)
	f.writeScoreTable(&b, report)

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeImageTable(b *strings.Builder, report *Report) {
	b.WriteString("## Image\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	fmt.Fprintf(b, "| File | %s |\n", escapeMarkdownCell(report.File))
	fmt.Fprintf(b, "| Type | %s |\n", escapeMarkdownCell(report.MIMEType))
	fmt.Fprintf(b, "| Size | %s |\n", formatBytes(report.Bytes))
	if report.RequestID != "" {
		fmt.Fprintf(b, "| Request ID | `%s` |\n", report.RequestID)
	}
	fmt.Fprintf(b, "| Elapsed | %s |\n\n", formatElapsed(report.Elapsed))
}

func (f *markdownFormatter) writeScoreTable(b *strings.Builder, report *Report) {
	b.WriteString("## Prediction Results\n\n")
	if len(report.Series) == 0 {
		b.WriteString("_No prediction available._\n")
		return
	}

	top, _ := report.Top()
	b.WriteString("| Class | Score |\n")
	b.WriteString("|-------|------:|\n")
	for _, bar := range report.Series {
		label := escapeMarkdownCell(bar.Label)
		if bar == top {
			label = "**" + label + "**"
		}
		fmt.Fprintf(b, "| %s | %.4f |\n", label, bar.Score)
	}
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
