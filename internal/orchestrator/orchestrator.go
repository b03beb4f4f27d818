// Package orchestrator drives a full run: it walks the data root,
// resolves each leaf folder to a target table and sheet name, hands
// files to the loader in deterministic order, and owns the commit
// boundary, pause policy, and checkpoint file.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgdatahub/pgdatahub/domain/model"
	"github.com/pgdatahub/pgdatahub/internal/config"
	"github.com/pgdatahub/pgdatahub/internal/identifier"
	"github.com/pgdatahub/pgdatahub/internal/ledger"
	"github.com/pgdatahub/pgdatahub/internal/loader"
	"github.com/pgdatahub/pgdatahub/internal/logging"
	"github.com/pgdatahub/pgdatahub/internal/schema"
)

// Summary accumulates counters across a run for the closing log line
// and the exit-code decision.
type Summary struct {
	FilesProcessed int
	FilesSkipped   int
	RowsImported   int64
	SchemaChanges  int
	Errors         []string
	Checkpointed   bool
}

// Orchestrator owns one run against one open connection. conn is nil
// when the run is SkipDB: every file still gets read, normalized, and
// type-inferred, but nothing is ever queried, altered, or copied into a
// table.
type Orchestrator struct {
	conn      *pgx.Conn
	loader    *loader.Loader
	sheetMap  *config.SheetMap
	etl       config.ETLConfig
	dataRoot  string
	processed int
}

// New creates an Orchestrator. sheetMap may be nil, in which case every
// folder resolves to "Sheet1". conn, sm, and l may all be nil when
// etl.SkipDB is set — the orchestrator never dereferences them in that
// mode.
func New(conn *pgx.Conn, sm *schema.Manager, l *ledger.Ledger, sheetMap *config.SheetMap, etl config.ETLConfig, dataRoot string) *Orchestrator {
	return &Orchestrator{
		conn:     conn,
		loader:   loader.New(conn, sm, l),
		sheetMap: sheetMap,
		etl:      etl,
		dataRoot: dataRoot,
	}
}

// Run scans the data root and processes every discovered folder in
// sorted order, from scratch. It returns the accumulated Summary even
// when it returns an error, since a partial summary is still useful to
// the caller.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	return o.run(ctx, nil)
}

// Resume continues a previously checkpointed run: it reprocesses the
// in-progress folder's recorded remaining files, then the remaining
// folders the checkpoint named, in order — it never re-touches a folder
// the checkpoint had already finished.
func (o *Orchestrator) Resume(ctx context.Context, cp Checkpoint) (Summary, error) {
	return o.run(ctx, &cp)
}

func (o *Orchestrator) run(ctx context.Context, resumeFrom *Checkpoint) (Summary, error) {
	var sum Summary

	folders, err := o.buildWorkList(resumeFrom)
	if err != nil {
		return sum, err
	}

	logging.FromContext(ctx).Info("work list built", "folders", len(folders), "resuming", resumeFrom != nil)

	for i, folder := range folders {
		select {
		case <-ctx.Done():
			o.writeCheckpoint(folder, 0, folders[i+1:])
			sum.Checkpointed = true
			return sum, ctx.Err()
		default:
		}

		success, resumeAt, err := o.runFolder(ctx, folder, &sum)
		if err != nil {
			// ConnectionError/ConfigError: fatal for the whole run.
			o.writeCheckpoint(folder, resumeAt, folders[i+1:])
			sum.Checkpointed = true
			return sum, err
		}
		if !success && o.etl.SectionalCommit {
			o.writeCheckpoint(folder, resumeAt, folders[i+1:])
			sum.Checkpointed = true
			return sum, nil
		}
	}

	_ = DeleteCheckpoint(o.dataRoot)
	return sum, nil
}

// buildWorkList returns the folders Run should process, in order. With
// no checkpoint, that is every folder Discover finds. With one, the
// in-progress folder is reconstructed from its recorded remaining files
// (not re-read from disk — a file that vanished since the checkpoint
// was written is still worth reporting as a read failure rather than
// silently dropped), and every folder named in RemainingFolders is
// looked up fresh so its current file list is used.
func (o *Orchestrator) buildWorkList(resumeFrom *Checkpoint) ([]Folder, error) {
	discovered, err := Discover(o.dataRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfig, err)
	}
	if resumeFrom == nil {
		return discovered, nil
	}

	byPath := make(map[string]Folder, len(discovered))
	for _, f := range discovered {
		byPath[pathKey(f.PathParts)] = f
	}

	work := make([]Folder, 0, len(resumeFrom.RemainingFolders)+1)
	if len(resumeFrom.CurrentFolder) > 0 && len(resumeFrom.RemainingFilesInCurrent) > 0 {
		work = append(work, Folder{
			PathParts: resumeFrom.CurrentFolder,
			Files:     resumeFrom.RemainingFilesInCurrent,
		})
	}
	for _, parts := range resumeFrom.RemainingFolders {
		if f, ok := byPath[pathKey(parts)]; ok {
			work = append(work, f)
		}
	}
	return work, nil
}

func pathKey(parts []string) string {
	return strings.Join(parts, "/")
}

// runFolder processes every file in one folder, in the order of
// folder.Files. It returns false (without error) when a
// file failed but the run should continue with the next folder — true
// fatal errors are returned as the third value and always stop the run.
// resumeAt is the index of the first file that was not fully processed;
// it equals len(folder.Files) when the folder finished cleanly.
func (o *Orchestrator) runFolder(ctx context.Context, folder Folder, sum *Summary) (success bool, resumeAt int, err error) {
	tableName := identifier.TableName(folder.PathParts)
	sheetName := o.sheetMap.Resolve(folder.PathParts)
	folderPath := pathKey(folder.PathParts)

	log := logging.WithFields(ctx, "table", tableName, "sheet", sheetName, "folder", folderPath)
	log.Info("processing folder", "files", len(folder.Files))

	sectional := o.etl.SectionalCommit && o.conn != nil

	if sectional {
		if _, err := o.conn.Exec(ctx, "BEGIN"); err != nil {
			return false, 0, fmt.Errorf("%w: begin folder transaction %s: %w", model.ErrConnection, folderPath, err)
		}
	}

	success = true

	for i, file := range folder.Files {
		if o.etl.SkipDB {
			plan, err := loader.PlanFile(ctx, file, sheetName, o.etl.ChunkSize)
			if err != nil {
				success = false
				sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", file, err))
				log.Warn("skipping unreadable file", "file", file, "error", err)
				continue
			}
			sum.FilesProcessed++
			sum.RowsImported += plan.RowsRead
			log.Info("planned import (skip_db)", "file", file, "rows", plan.RowsRead, "columns", len(plan.Columns))
			continue
		}

		result, err := o.loader.LoadFile(ctx, file, sheetName, tableName, folderPath, o.etl.ChunkSize)
		if err != nil {
			success = false
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", file, err))

			switch {
			case errors.Is(err, model.ErrConnection), errors.Is(err, model.ErrConfig):
				return false, i, err
			case errors.Is(err, model.ErrSchema), errors.Is(err, model.ErrIntegrity):
				log.Error("aborting file", "file", file, "error", err)
				if sectional {
					_, _ = o.conn.Exec(ctx, "ROLLBACK")
					return false, i, nil
				}
				continue
			default:
				// ReadError and anything unclassified: skip, keep going.
				log.Warn("skipping unreadable file", "file", file, "error", err)
				if sectional {
					_, _ = o.conn.Exec(ctx, "ROLLBACK")
					return false, i, nil
				}
				continue
			}
		}

		if result.Skipped {
			sum.FilesSkipped++
			log.Info("skipped duplicate import", "file", file)
			continue
		}

		sum.FilesProcessed++
		sum.RowsImported += result.RowsLoaded
		log.Info("imported file", "file", file, "rows", result.RowsLoaded)

		o.processed++
		if o.etl.PauseEvery > 0 && o.processed%o.etl.PauseEvery == 0 {
			log.Info("pause threshold reached", "pause_seconds", o.etl.PauseSeconds)
			if sectional {
				if _, err := o.conn.Exec(ctx, "COMMIT"); err != nil {
					return false, i + 1, fmt.Errorf("%w: commit before pause: %w", model.ErrConnection, err)
				}
			}
			time.Sleep(time.Duration(o.etl.PauseSeconds) * time.Second)
			if sectional {
				if _, err := o.conn.Exec(ctx, "BEGIN"); err != nil {
					return false, i + 1, fmt.Errorf("%w: begin after pause: %w", model.ErrConnection, err)
				}
			}
		}
	}

	if sectional {
		if _, err := o.conn.Exec(ctx, "COMMIT"); err != nil {
			return success, len(folder.Files), fmt.Errorf("%w: commit folder %s: %w", model.ErrConnection, folderPath, err)
		}
	}

	return success, len(folder.Files), nil
}

func (o *Orchestrator) writeCheckpoint(currentFolder Folder, resumeAt int, remainingFolders []Folder) {
	remaining := make([][]string, len(remainingFolders))
	for i, f := range remainingFolders {
		remaining[i] = f.PathParts
	}

	var currentFiles []string
	if resumeAt < len(currentFolder.Files) {
		currentFiles = currentFolder.Files[resumeAt:]
	}

	cp := Checkpoint{
		DataRoot:                o.dataRoot,
		CurrentFolder:           currentFolder.PathParts,
		RemainingFilesInCurrent: currentFiles,
		RemainingFolders:        remaining,
		CreatedAt:               time.Now().UTC(),
	}
	if err := WriteCheckpoint(o.dataRoot, cp); err != nil {
		slog.Error("failed to write checkpoint", "error", err)
	}
}
