// Package chart turns a prediction matrix into a labelled series and draws it as a terminal bar chart.
package chart

import (
	"fmt"

	"github.com/yildizm/DenseView/internal/predict"
)

// Bar is one labelled score
type Bar struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MalformedPredictionError is returned when row 0 has a class count outside the accepted range
type MalformedPredictionError struct {
	Columns    int
	MinClasses int
	MaxClasses int
}

func (e *MalformedPredictionError) Error() string {
	if e.MaxClasses > 0 {
		return fmt.Sprintf("malformed prediction: %d classes, expected %d to %d", e.Columns, e.MinClasses, e.MaxClasses)
	}
	return fmt.Sprintf("malformed prediction: %d classes, expected at least %d", e.Columns, e.MinClasses)
}

// Unwrap lets errors.Is match predict.ErrMalformed
func (e *MalformedPredictionError) Unwrap() error {
	return predict.ErrMalformed
}

// Series pairs row 0 of m with generated labels using the default options
func Series(m predict.Matrix) ([]Bar, error) {
	return SeriesWithOptions(m, DefaultOptions())
}

// SeriesWithOptions pairs every column of row 0 with the label "<prefix> i" (1-based).
// An absent matrix yields an empty series.
func SeriesWithOptions(m predict.Matrix, opts Options) ([]Bar, error) {
	if len(m) == 0 {
		return nil, nil
	}

	row := m[0]
	if len(row) < opts.MinClasses || (opts.MaxClasses > 0 && len(row) > opts.MaxClasses) {
		return nil, &MalformedPredictionError{
			Columns:    len(row),
			MinClasses: opts.MinClasses,
			MaxClasses: opts.MaxClasses,
		}
	}

	prefix := opts.LabelPrefix
	if prefix == "" {
		prefix = DefaultLabelPrefix
	}

	series := make([]Bar, len(row))
	for i, score := range row {
		series[i] = Bar{Label: fmt.Sprintf("%s %d", prefix, i+1), Score: score}
	}
	return series, nil
}
