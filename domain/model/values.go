package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseValue converts a raw cell string into the Go value its target
// column type expects for insertion. A blank (or whitespace-only) value
// is always nil, regardless of type — the sanitize step that turns
// temporal-null sentinels and empty cells into real nulls applies
// uniformly across every column, Text included.
func ParseValue(raw string, ct ColumnType) (any, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	switch ct {
	case ColumnTypeInteger:
		n, err := strconv.ParseInt(cleanNumeric(value), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", raw, err)
		}
		return int32(n), nil
	case ColumnTypeBigInt:
		n, err := strconv.ParseInt(cleanNumeric(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse bigint %q: %w", raw, err)
		}
		return n, nil
	case ColumnTypeDouble:
		f, err := strconv.ParseFloat(cleanNumeric(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parse double %q: %w", raw, err)
		}
		return f, nil
	case ColumnTypeBoolean:
		b, ok := parseBool(value)
		if !ok {
			return nil, fmt.Errorf("parse boolean %q: not a recognized literal", raw)
		}
		return b, nil
	case ColumnTypeDate:
		t, ok := parseTemporal(value)
		if !ok {
			return nil, fmt.Errorf("parse date %q: no matching layout", raw)
		}
		return t, nil
	case ColumnTypeTimestamp:
		t, ok := parseTemporal(value)
		if !ok {
			return nil, fmt.Errorf("parse timestamp %q: no matching layout", raw)
		}
		return t, nil
	default:
		return value, nil
	}
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// parseTemporal tries every known layout in turn, returning the first
// successful parse. It deliberately does not consult classifyTemporal's
// regexp prefilter — a value that reaches here has already been through
// type inference, so every layout is worth attempting directly.
func parseTemporal(value string) (time.Time, bool) {
	for _, dp := range datetimePatterns {
		for _, format := range dp.formats {
			if t, err := time.Parse(format, value); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// cleanNumeric strips the currency/percent/thousands-separator noise a
// spreadsheet cell commonly carries before a numeric parse is attempted.
func cleanNumeric(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '$', '%', ',', ' ':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
