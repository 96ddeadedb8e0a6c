package catalog

import (
	"fmt"
	"strings"
	"time"
)

// spanishMonths indexes month names by time.Month.
var spanishMonths = [...]string{
	time.January:   "enero",
	time.February:  "febrero",
	time.March:     "marzo",
	time.April:     "abril",
	time.May:       "mayo",
	time.June:      "junio",
	time.July:      "julio",
	time.August:    "agosto",
	time.September: "septiembre",
	time.October:   "octubre",
	time.November:  "noviembre",
	time.December:  "diciembre",
}

// HumanDate renders an ISO date as Spanish prose ("12 de marzo de 2026").
// Absent or unparseable input yields an empty string, never an error:
// a missing date is normal catalog data, not a failure.
func HumanDate(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return ""
	}

	// Accept full timestamps by reading only the date part.
	if len(iso) > 10 {
		iso = iso[:10]
	}

	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()], t.Year())
}

// NormalizeISODate returns the yyyy-mm-dd form of a raw date value, or
// empty if it does not parse.
func NormalizeISODate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if len(raw) > 10 {
		raw = raw[:10]
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return ""
	}
	return raw
}
