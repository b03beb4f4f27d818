package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgdatahub/pgdatahub/internal/config"
)

func skipDBOrchestrator(dataRoot string) *Orchestrator {
	etl := config.ETLConfig{SkipDB: true, ChunkSize: 1000}
	return New(nil, nil, nil, nil, etl, dataRoot)
}

func TestBuildWorkList_NoCheckpointReturnsEverything(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "sales/2024/jan.csv")
	writeFixture(t, root, "claims/q1.csv")

	o := skipDBOrchestrator(root)
	work, err := o.buildWorkList(nil)
	require.NoError(t, err)
	require.Len(t, work, 2)
	assert.Equal(t, []string{"claims"}, work[0].PathParts)
	assert.Equal(t, []string{"sales", "2024"}, work[1].PathParts)
}

func TestBuildWorkList_ResumesCurrentFolderThenRemaining(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "sales/2023/jan.csv")
	writeFixture(t, root, "sales/2023/feb.csv")
	writeFixture(t, root, "sales/2023/mar.csv")
	writeFixture(t, root, "claims/q1.csv")

	// Checkpoint recorded that "sales/2023" still had feb.csv and
	// mar.csv left, and "claims" had not started yet. jan.csv, already
	// processed before the checkpoint was written, must not reappear.
	cp := &Checkpoint{
		DataRoot:                root,
		CurrentFolder:           []string{"sales", "2023"},
		RemainingFilesInCurrent: []string{filepath.Join(root, "sales", "2023", "feb.csv"), filepath.Join(root, "sales", "2023", "mar.csv")},
		RemainingFolders:        [][]string{{"claims"}},
	}

	o := skipDBOrchestrator(root)
	work, err := o.buildWorkList(cp)
	require.NoError(t, err)
	require.Len(t, work, 2)

	assert.Equal(t, []string{"sales", "2023"}, work[0].PathParts)
	assert.Equal(t, cp.RemainingFilesInCurrent, work[0].Files)

	assert.Equal(t, []string{"claims"}, work[1].PathParts)
	assert.Len(t, work[1].Files, 1)
}

func TestBuildWorkList_DropsFolderRemovedSinceCheckpoint(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "claims/q1.csv")

	cp := &Checkpoint{
		DataRoot:         root,
		RemainingFolders: [][]string{{"sales", "2023"}, {"claims"}},
	}

	o := skipDBOrchestrator(root)
	work, err := o.buildWorkList(cp)
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, []string{"claims"}, work[0].PathParts)
}

func TestRun_SkipDBNeverTouchesDatabase(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sales", "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sales", "2024", "jan.csv"), []byte("id,amount\n1,10\n2,20\n"), 0o644))

	o := skipDBOrchestrator(root)
	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesProcessed)
	assert.Equal(t, int64(2), summary.RowsImported)
	assert.False(t, summary.Checkpointed)
	assert.False(t, HasCheckpoint(root))
}

func TestResume_SkipDBOnlyProcessesCheckpointedWork(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sales", "2023"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "claims"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sales", "2023", "jan.csv"), []byte("id\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sales", "2023", "feb.csv"), []byte("id\n2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "claims", "q1.csv"), []byte("id\n3\n"), 0o644))

	cp := Checkpoint{
		DataRoot:                root,
		CurrentFolder:           []string{"sales", "2023"},
		RemainingFilesInCurrent: []string{filepath.Join(root, "sales", "2023", "feb.csv")},
		RemainingFolders:        [][]string{{"claims"}},
	}

	o := skipDBOrchestrator(root)
	summary, err := o.Resume(context.Background(), cp)
	require.NoError(t, err)

	// jan.csv was already imported before the checkpoint was written and
	// must not be reprocessed; only feb.csv and claims/q1.csv count.
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, int64(2), summary.RowsImported)
}
