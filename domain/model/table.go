package model

// Table is an in-memory chunk of rows read from one sheet: a header, the
// records beneath it, and the column types inferred from those records.
// The loader builds one Table per rowsource.Chunk it reads, after header
// normalization, so ColumnInfo reflects the chunk's normalized columns
// rather than the sheet's raw ones.
type Table struct {
	name       string
	header     Header
	records    []Record
	columnInfo []ColumnInfo
}

// NewTable creates a new Table, inferring column types from the records.
func NewTable(name string, header Header, records []Record) *Table {
	return &Table{
		name:       name,
		header:     header,
		records:    records,
		columnInfo: InferColumnsInfo(header, records),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Header returns the table header.
func (t *Table) Header() Header {
	return t.header
}

// Records returns the table records.
func (t *Table) Records() []Record {
	return t.records
}

// ColumnInfo returns the inferred column types.
func (t *Table) ColumnInfo() []ColumnInfo {
	return t.columnInfo
}
