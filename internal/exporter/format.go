package exporter

import (
	"strconv"
	"time"

	"revforecast/pkg/contracts/domain"
)

// formatFloat formats a float64 with the shortest representation that
// round-trips, e.g. 13.4 or 0.000001.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatMoney formats a currency amount with exactly 2 decimal places
func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatOptional formats a possibly missing value as an empty cell
func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatOptionalInt formats a possibly missing count as an empty cell
func formatOptionalInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// formatDate formats a day in the canonical layout
func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}
