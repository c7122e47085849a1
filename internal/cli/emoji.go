package cli

import (
	"fmt"
	"io"

	"github.com/yildizm/DenseView/internal/emoji"
)

// GetEmoji is a wrapper for the shared emoji package
func GetEmoji(key string) string {
	return emoji.GetEmoji(key)
}

// printStatus writes one line prefixed with the emoji for key
func printStatus(w io.Writer, key, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", GetEmoji(key), fmt.Sprintf(format, args...))
}
