package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

// NewProgressBar creates a progress bar in the accent gradient
func NewProgressBar(width int) progress.Model {
	return progress.New(
		progress.WithGradient("#5A56E0", "#EE6FF8"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

// RenderProgress renders a static bar for current out of total
func RenderProgress(bar progress.Model, current, total int) string {
	if total <= 0 {
		return bar.ViewAs(0)
	}
	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}
	return bar.ViewAs(pct)
}

// FormatBytes renders a byte count using binary units
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration rounds a duration for display
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
