package predict

import "fmt"

// Matrix holds per-sample, per-class scores: rows are samples, columns are classes
type Matrix [][]float64

// Response is the body returned by POST /predict/
type Response struct {
	Prediction Matrix `json:"prediction"`
}

// Rows returns the number of samples
func (m Matrix) Rows() int {
	return len(m)
}

// Columns returns the column count of the first row, or 0 for an empty matrix
func (m Matrix) Columns() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Clone returns a deep copy so stored values cannot be mutated by callers
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Validate checks the structural invariants: at least one row, every row with the
// same number of columns, and that number within [minClasses, maxClasses].
// A maxClasses of 0 means unbounded.
func (m Matrix) Validate(minClasses, maxClasses int) error {
	if len(m) == 0 {
		return NewError(KindDecode, "prediction has no rows")
	}

	cols := len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return NewError(KindMalformed, fmt.Sprintf("row %d has %d columns, row 0 has %d", i, len(row), cols))
		}
	}

	if cols < minClasses {
		return NewError(KindMalformed, fmt.Sprintf("expected at least %d classes, got %d", minClasses, cols))
	}
	if maxClasses > 0 && cols > maxClasses {
		return NewError(KindMalformed, fmt.Sprintf("expected at most %d classes, got %d", maxClasses, cols))
	}

	return nil
}
