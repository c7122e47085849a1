package formatter

import (
	"encoding/json"
	"time"

	"github.com/yildizm/DenseView/internal/chart"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// JSONOutput is the document written by the JSON formatter
type JSONOutput struct {
	File        string      `json:"file"`
	MIMEType    string      `json:"mime_type"`
	Bytes       int         `json:"bytes"`
	RequestID   string      `json:"request_id,omitempty"`
	ElapsedMS   int64       `json:"elapsed_ms"`
	Series      []chart.Bar `json:"series"`
	Top         *chart.Bar  `json:"top,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
}

func (f *jsonFormatter) Format(report *Report) ([]byte, error) {
	series := report.Series
	if series == nil {
		series = []chart.Bar{}
	}
	output := &JSONOutput{
		File:        report.File,
		MIMEType:    report.MIMEType,
		Bytes:       report.Bytes,
		RequestID:   report.RequestID,
		ElapsedMS:   report.Elapsed.Milliseconds(),
		Series:      series,
		GeneratedAt: report.GeneratedAt,
	}
	if top, ok := report.Top(); ok {
		output.Top = &top
	}

	return json.MarshalIndent(output, "", "  ")
}
