package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetMap_Resolve(t *testing.T) {
	t.Parallel()

	m := NewSheetMap(map[string]any{
		"default_sheet": "Sheet1",
		"folder_b": map[string]any{
			"sheet": "Overview",
			"nested": map[string]any{
				"sheet": "Claims",
			},
		},
	})

	assert.Equal(t, "Claims", m.Resolve([]string{"folder_b", "nested"}))
	assert.Equal(t, "Overview", m.Resolve([]string{"folder_b"}))
	assert.Equal(t, "Overview", m.Resolve([]string{"FOLDER_B"}), "match must be case-insensitive")
	assert.Equal(t, "Sheet1", m.Resolve([]string{"unmapped"}))
}

func TestSheetMap_NilIsDefault(t *testing.T) {
	t.Parallel()

	var m *SheetMap
	assert.Equal(t, "Sheet1", m.Resolve([]string{"anything"}))
}

func TestLoadSheetMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "etl_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_sheet: Sheet1
sales:
  2024:
    sheet: Q4Revenue
`), 0o644))

	m, err := LoadSheetMap(path)
	require.NoError(t, err)
	assert.Equal(t, "Q4Revenue", m.Resolve([]string{"sales", "2024"}))
	assert.Equal(t, "Sheet1", m.Resolve([]string{"sales"}))
}
