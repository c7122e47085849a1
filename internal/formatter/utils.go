package formatter

import (
	"fmt"
	"time"
)

// formatBytes renders a byte count with a binary unit
func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatElapsed rounds to milliseconds
func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	return d.Round(time.Millisecond).String()
}

// clampUnit bounds a score to [0, 1] for percentage bars
func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
