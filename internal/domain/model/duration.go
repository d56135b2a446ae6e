package model

import (
	"math"
	"strconv"
	"strings"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// FormatDuration renders a minute count as "{d}d {h}h {m}m", omitting zero units
// and collapsing to "0m" when every unit is zero. Fractions are truncated, never
// rounded. Negative input renders the magnitude with a leading "-".
func FormatDuration(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return "0m"
	}

	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}

	total := int64(minutes)
	days := total / minutesPerDay
	hours := (total % minutesPerDay) / minutesPerHour
	mins := total % minutesPerHour

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.FormatInt(days, 10)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if mins > 0 {
		parts = append(parts, strconv.FormatInt(mins, 10)+"m")
	}

	if len(parts) == 0 {
		return "0m"
	}
	return sign + strings.Join(parts, " ")
}
