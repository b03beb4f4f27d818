// Package model provides the domain types shared by the ingestion pipeline:
// row/header values, the inferred-type ladder, and column metadata.
package model

// Header is a row of column names as read from a workbook sheet before
// normalization.
type Header []string

// NewHeader creates a new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compares two Headers.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record is a single row of raw cell values.
type Record []string

// NewRecord creates a new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// ColumnType is a rung on one of the type-widening ladders. The zero value
// is the narrowest type on the integer ladder.
type ColumnType int

const (
	// ColumnTypeInteger fits in a signed 32-bit integer.
	ColumnTypeInteger ColumnType = iota
	// ColumnTypeBigInt fits in a signed 64-bit integer but not a 32-bit one.
	ColumnTypeBigInt
	// ColumnTypeDouble is a floating point value.
	ColumnTypeDouble
	// ColumnTypeDate is a calendar date with no time-of-day component.
	ColumnTypeDate
	// ColumnTypeTimestamp is a date with a time-of-day component.
	ColumnTypeTimestamp
	// ColumnTypeBoolean is a two-valued boolean.
	ColumnTypeBoolean
	// ColumnTypeText is the universal fallback; every ladder widens to it.
	ColumnTypeText
)

const (
	sqlTypeInteger   = "INTEGER"
	sqlTypeBigInt    = "BIGINT"
	sqlTypeDouble    = "DOUBLE PRECISION"
	sqlTypeDate      = "DATE"
	sqlTypeTimestamp = "TIMESTAMP"
	sqlTypeBoolean   = "BOOLEAN"
	sqlTypeText      = "TEXT"
)

// String returns the Postgres SQL type name for the column type.
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeBigInt:
		return sqlTypeBigInt
	case ColumnTypeDouble:
		return sqlTypeDouble
	case ColumnTypeDate:
		return sqlTypeDate
	case ColumnTypeTimestamp:
		return sqlTypeTimestamp
	case ColumnTypeBoolean:
		return sqlTypeBoolean
	case ColumnTypeText:
		return sqlTypeText
	default:
		return sqlTypeText
	}
}

// ladder identifies which widening chain a type belongs to. Types on
// different ladders never widen into each other directly; every chain
// bottoms out at Text.
type ladder int

const (
	ladderNumeric ladder = iota
	ladderTemporal
	ladderBoolean
	ladderText
)

func (ct ColumnType) ladder() ladder {
	switch ct {
	case ColumnTypeInteger, ColumnTypeBigInt, ColumnTypeDouble:
		return ladderNumeric
	case ColumnTypeDate, ColumnTypeTimestamp:
		return ladderTemporal
	case ColumnTypeBoolean:
		return ladderBoolean
	default:
		return ladderText
	}
}

// rank orders a type within its own ladder; higher ranks are wider.
func (ct ColumnType) rank() int {
	switch ct {
	case ColumnTypeInteger:
		return 0
	case ColumnTypeBigInt:
		return 1
	case ColumnTypeDouble:
		return 2
	case ColumnTypeDate:
		return 0
	case ColumnTypeTimestamp:
		return 1
	case ColumnTypeBoolean:
		return 0
	default:
		return 0
	}
}

// Widen returns the narrowest type that can hold values of both ct and
// other. Widening never crosses ladders except by falling through to
// Text, and it is commutative: Widen(a, b) == Widen(b, a).
func Widen(ct, other ColumnType) ColumnType {
	if ct == other {
		return ct
	}
	if ct == ColumnTypeText || other == ColumnTypeText {
		return ColumnTypeText
	}
	if ct.ladder() != other.ladder() {
		return ColumnTypeText
	}
	if ct.rank() >= other.rank() {
		return ct
	}
	return other
}

// ColumnInfo is a column's normalized name paired with its inferred type.
type ColumnInfo struct {
	Name string
	Type ColumnType
}
