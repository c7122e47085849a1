package formatter

import (
	"fmt"
	"time"

	"github.com/yildizm/DenseView/internal/chart"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// Report is the result of one successful prediction
type Report struct {
	File        string
	MIMEType    string
	Bytes       int
	RequestID   string
	Elapsed     time.Duration
	Series      []chart.Bar
	GeneratedAt time.Time
}

// Top returns the highest scoring bar; ties keep the first
func (r *Report) Top() (chart.Bar, bool) {
	if len(r.Series) == 0 {
		return chart.Bar{}, false
	}
	top := r.Series[0]
	for _, bar := range r.Series[1:] {
		if bar.Score > top.Score {
			top = bar
		}
	}
	return top, true
}

// New returns the formatter for format: text, json, csv or markdown
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "csv":
		return NewCSV(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
