// Package format contains small presentation helpers
package format

import "fmt"

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// Size converts a byte count into a human-readable string, e.g. "15.00 MB"
func Size(bytes int64) string {
	if bytes == 0 {
		return "0B"
	}

	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}

	return fmt.Sprintf("%.2f %s", value, sizeUnits[i])
}
