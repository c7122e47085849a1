package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// csvFormatter formats the series as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(report *Report) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{"File", "Request ID", "Class", "Score"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, bar := range report.Series {
		record := []string{
			report.File,
			report.RequestID,
			bar.Label,
			strconv.FormatFloat(bar.Score, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}
