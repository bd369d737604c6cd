// Package formatting provides human-readable formatting and parsing of byte
// sizes. Decimal units (KB, MB, ...) are powers of 1000 and binary units
// (KiB, MiB, ...) are powers of 1024.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var decimalUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

var binaryUnits = []string{"B", "KIB", "MIB", "GIB", "TIB", "PIB"}

var bytesPattern = regexp.MustCompile(`^(\d+\.?\d*)\s*([A-Za-z]*)$`)

// FormatBytes converts a byte count to a human-readable string using decimal units.
// Negative precision values are clamped to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}

	if precision < 0 {
		precision = 0
	}

	f := math.Abs(float64(n))
	i := int(math.Floor(math.Log10(f) / 3))
	i = max(0, min(i, len(decimalUnits)-1))

	size := float64(n) / math.Pow(1000, float64(i))
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + decimalUnits[i]
}

// ParseBytes parses a human-readable byte size string (e.g., "5MB", "2 MiB")
// into a byte count. A bare number with no unit is treated as bytes. Unit
// matching is case-insensitive and an optional space between number and unit
// is allowed.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	matches := bytesPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(matches[2])
	if unit == "" {
		return int64(value), nil
	}

	if idx := slices.Index(decimalUnits, unit); idx != -1 {
		return int64(math.Round(value * math.Pow(1000, float64(idx)))), nil
	}
	if idx := slices.Index(binaryUnits, unit); idx != -1 {
		return int64(math.Round(value * math.Pow(1024, float64(idx)))), nil
	}

	return 0, fmt.Errorf("unknown byte size unit: %q", matches[2])
}
