package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, root, relPath string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
}

func TestDiscover_GroupsByLeafFolder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "folder_b/nested/claims_q1.xlsx")
	writeFixture(t, root, "folder_b/nested/claims_q2.xlsx")
	writeFixture(t, root, "sales/2024/jan.csv")
	writeFixture(t, root, "sales/2024/readme.txt") // not recognized, excluded
	writeFixture(t, root, "toplevel.xlsx")          // no leaf folder, excluded

	folders, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	assert.Equal(t, []string{"folder_b", "nested"}, folders[0].PathParts)
	assert.Len(t, folders[0].Files, 2)

	assert.Equal(t, []string{"sales", "2024"}, folders[1].PathParts)
	assert.Len(t, folders[1].Files, 1)
}

func TestDiscover_EmptyRoot(t *testing.T) {
	t.Parallel()

	folders, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestDiscover_SortedOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "zebra/data.csv")
	writeFixture(t, root, "alpha/data.csv")
	writeFixture(t, root, "mid/b.csv")
	writeFixture(t, root, "mid/a.csv")

	folders, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, folders, 3)

	assert.Equal(t, []string{"alpha"}, folders[0].PathParts)
	assert.Equal(t, []string{"mid"}, folders[1].PathParts)
	assert.Equal(t, []string{"zebra"}, folders[2].PathParts)

	assert.Equal(t, []string{filepath.Join(root, "mid", "a.csv"), filepath.Join(root, "mid", "b.csv")}, folders[1].Files)
}
