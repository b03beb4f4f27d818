package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTable(t *testing.T) {
	t.Parallel()

	header := NewHeader([]string{"id", "name"})
	records := []Record{
		NewRecord([]string{"1", "Alice"}),
		NewRecord([]string{"2", "Bob"}),
	}

	table := NewTable("customers", header, records)

	assert.Equal(t, "customers", table.Name())
	assert.True(t, table.Header().Equal(header))
	assert.Len(t, table.Records(), 2)
	assert.Equal(t, []ColumnInfo{
		{Name: "id", Type: ColumnTypeInteger},
		{Name: "name", Type: ColumnTypeText},
	}, table.ColumnInfo())
}
