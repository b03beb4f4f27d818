package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datetimePatterns pairs a quick regexp filter with the exact layouts to
// attempt, and whether the layout carries a time-of-day component (which
// decides Date vs Timestamp once the regexp has matched).
var datetimePatterns = []struct {
	pattern  *regexp.Regexp
	formats  []string
	hasClock bool
}{
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
		true,
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000"},
		true,
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"},
		true,
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
		false,
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}( (AM|PM))?$`),
		[]string{"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "01/02/2006 15:04:05"},
		true,
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "01/02/2006"},
		false,
	},
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4} \d{1,2}:\d{2}:\d{2}$`),
		[]string{"2.1.2006 15:04:05", "02.01.2006 15:04:05"},
		true,
	},
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
		[]string{"2.1.2006", "02.01.2006"},
		false,
	},
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"15:04:05", "15:04:05.000", "3:04:05"},
		true,
	},
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}$`),
		[]string{"15:04", "3:04"},
		true,
	},
}

// booleanLiterals is the recognized set of case-insensitive boolean
// sentinels. A column holding only these values (plus blanks) is inferred
// as Boolean rather than Text.
var booleanLiterals = map[string]bool{
	"true": true, "false": true,
	"t": true, "f": true,
	"yes": true, "no": true,
	"y": true, "n": true,
}

// classifyTemporal reports whether value matches a known date/time layout
// and, if so, whether that layout carries a time-of-day component.
func classifyTemporal(value string) (matched bool, hasClock bool) {
	for _, dp := range datetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		for _, format := range dp.formats {
			if _, err := time.Parse(format, value); err == nil {
				return true, dp.hasClock
			}
		}
	}
	return false, false
}

// InferColumnType infers the narrowest type on the type ladder that holds
// every non-blank value. Blank values never widen the result; a column of
// nothing but blanks infers as Text, matching InferColumnsInfo's default.
//
// When a column mixes kinds within one ladder, the wider kind wins
// (Timestamp over Date; Double over BigInt over Integer). Any Text value,
// or a mix of kinds from different ladders (temporal, boolean, numeric),
// makes the column Text, mirroring how the widening ladder behaves once
// live data is inserted.
func InferColumnType(values []string) ColumnType {
	if len(values) == 0 {
		return ColumnTypeText
	}

	sawAny := false
	hasTimestamp := false
	hasDate := false
	hasBoolean := false
	hasDouble := false
	hasBigInt := false
	hasInteger := false
	hasText := false

	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		sawAny = true

		if matched, hasClock := classifyTemporal(value); matched {
			if hasClock {
				hasTimestamp = true
			} else {
				hasDate = true
			}
			continue
		}

		if booleanLiterals[strings.ToLower(value)] {
			hasBoolean = true
			continue
		}

		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			if n >= math.MinInt32 && n <= math.MaxInt32 {
				hasInteger = true
			} else {
				hasBigInt = true
			}
			continue
		}

		if _, err := strconv.ParseFloat(value, 64); err == nil {
			hasDouble = true
			continue
		}

		hasText = true
	}

	if !sawAny {
		return ColumnTypeText
	}

	hasTemporal := hasTimestamp || hasDate
	hasNumeric := hasDouble || hasBigInt || hasInteger

	switch {
	case hasText:
		return ColumnTypeText
	case hasTemporal && (hasNumeric || hasBoolean):
		// temporal values mixed with numeric/boolean values have no
		// shared ladder; fall to text
		return ColumnTypeText
	case hasTimestamp:
		return ColumnTypeTimestamp
	case hasDate:
		return ColumnTypeDate
	case hasBoolean && hasNumeric:
		// booleans mixed with numerics have no shared ladder; fall to text
		return ColumnTypeText
	case hasBoolean:
		return ColumnTypeBoolean
	case hasDouble:
		return ColumnTypeDouble
	case hasBigInt:
		return ColumnTypeBigInt
	case hasInteger:
		return ColumnTypeInteger
	default:
		return ColumnTypeText
	}
}

// InferColumnsInfo infers column information from a header and the data
// records beneath it. Columns with no records default to Text.
func InferColumnsInfo(header Header, records []Record) []ColumnInfo {
	columnCount := len(header)
	if columnCount == 0 {
		return nil
	}

	columns := make([]ColumnInfo, columnCount)
	for i, name := range header {
		columns[i] = ColumnInfo{Name: name, Type: ColumnTypeText}
	}

	if len(records) == 0 {
		return columns
	}

	for i := range columnCount {
		var values []string
		for _, record := range records {
			if i < len(record) {
				values = append(values, record[i])
			}
		}
		columns[i].Type = InferColumnType(values)
	}

	return columns
}
