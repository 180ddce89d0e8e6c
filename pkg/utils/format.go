package utils

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatDistance renders meters the way the delivery dashboard shows them:
// whole meters below one kilometer, one decimal of kilometers above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	km := math.Round(meters/100) / 10
	return humanize.FtoaWithDigits(km, 1) + " km"
}

// FormatDuration renders milliseconds as "Xh Ym", "Ym Zs" or "Zs".
func FormatDuration(millis float64) string {
	totalSeconds := int64(millis / 1000)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
