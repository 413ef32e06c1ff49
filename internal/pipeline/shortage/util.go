package shortage

import (
	"math"
	"strconv"
	"strings"
)

var columnNameReplacer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// normalizeColumnName lowercases a header and strips separators so
// "Part No.", "part_no" and "PART-NO" compare equal.
func normalizeColumnName(name string) string {
	return columnNameReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// normalizePartNumber trims and upper-cases a part number for joins.
func normalizePartNumber(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// parseNumber coerces spreadsheet text to a number. Thousands separators are
// stripped; empty, unparseable or non-finite text (NaN, Inf) yields nil.
func parseNumber(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// cell returns the trimmed value at idx, or "" when the row is short or idx is unresolved.
func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
