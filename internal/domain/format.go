package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// PrettyShutter renders a shutter speed: whole or decimal seconds from 1 s up,
// "1/N" below.
func PrettyShutter(seconds float64) string {
	if seconds >= 1 || seconds <= 0 {
		return strconv.FormatFloat(seconds, 'f', -1, 64)
	}
	return fmt.Sprintf("1/%d", int(math.Round(1/seconds)))
}

// FormatDuration renders d as "1h 2m 3s", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	neg := total < 0
	if neg {
		total = -total
	}
	h, m, s := total/3600, total%3600/60, total%60
	var out string
	switch {
	case h > 0:
		out = fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		out = fmt.Sprintf("%dm %ds", m, s)
	default:
		out = fmt.Sprintf("%ds", s)
	}
	if neg {
		return "-" + out
	}
	return out
}
