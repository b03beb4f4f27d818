package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_WriteReadDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	assert.False(t, HasCheckpoint(root))

	cp := Checkpoint{
		DataRoot:                root,
		CurrentFolder:           []string{"sales", "2023"},
		RemainingFolders:        [][]string{{"sales", "2024"}, {"claims"}},
		RemainingFilesInCurrent: []string{"a.xlsx", "b.xlsx"},
	}
	require.NoError(t, WriteCheckpoint(root, cp))
	assert.True(t, HasCheckpoint(root))

	got, ok, err := ReadCheckpoint(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cp.CurrentFolder, got.CurrentFolder)
	assert.Equal(t, cp.RemainingFolders, got.RemainingFolders)
	assert.Equal(t, cp.RemainingFilesInCurrent, got.RemainingFilesInCurrent)

	require.NoError(t, DeleteCheckpoint(root))
	assert.False(t, HasCheckpoint(root))

	// Deleting again is a no-op, not an error.
	require.NoError(t, DeleteCheckpoint(root))
}

func TestReadCheckpoint_Missing(t *testing.T) {
	t.Parallel()

	_, ok, err := ReadCheckpoint(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}
