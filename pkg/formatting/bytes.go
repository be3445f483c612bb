// Package formatting provides parsing helpers for model responses and
// human-readable size values.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB"}

var bytesPattern = regexp.MustCompile(`^(\d+\.?\d*)\s*([A-Za-z]*)$`)

// FormatBytes converts a byte count to a human-readable string using base-1024 units.
func FormatBytes(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}

	precision = max(precision, 0)

	f := float64(n)
	i := min(int(math.Floor(math.Log(f)/math.Log(1024))), len(units)-1)

	size := f / math.Pow(1024, float64(i))
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses a size string such as "1MB" or "512 kb" into a byte count.
// A bare number is treated as bytes.
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

	idx := slices.Index(units, unit)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	return int64(value * math.Pow(1024, float64(idx))), nil
}
