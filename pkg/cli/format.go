package cli

import (
	"fmt"
	"math"
)

// FormatSeconds formats a duration in seconds for display.
func FormatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%dms", int(math.Round(s*1000)))
	}
	if s < 60 {
		return fmt.Sprintf("%.1fs", s)
	}
	mins := int(s / 60)
	return fmt.Sprintf("%dm%.1fs", mins, s-float64(mins*60))
}

// FormatBytes formats a byte count for display.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatCents formats a signed cent offset, e.g. "+12¢".
func FormatCents(c float64) string {
	return fmt.Sprintf("%+.0f¢", c)
}
