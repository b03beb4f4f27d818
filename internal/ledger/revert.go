package ledger

import (
	"context"
	"fmt"

	"github.com/pgdatahub/pgdatahub/domain/model"
	"github.com/pgdatahub/pgdatahub/internal/identifier"
)

// RevertPlanItem describes one undo step revert_schema_changes would
// take (or, under dry-run, would have taken).
type RevertPlanItem struct {
	Entry      SchemaChangeEntry
	Invertible bool
	Reason     string // set when Invertible is false
}

// RevertReport summarizes one revert_by_fingerprint/revert_by_source_file
// invocation for the CLI to print: which table and file were targeted,
// how many rows came out, and whether it actually succeeded.
type RevertReport struct {
	TableName   string
	SourceFile  string
	RowsDeleted int64
	Error       error
}

// RevertByFingerprint deletes every row of tableName whose source_file
// matches the ledger entry for (tableName, fingerprint), then deletes
// the ledger row itself. It is the fingerprint-keyed counterpart to
// RevertBySourceFile — used by `revert --file-hash`.
func (l *Ledger) RevertByFingerprint(ctx context.Context, tableName, fingerprint string) RevertReport {
	var sourceFile string
	err := l.conn.QueryRow(ctx, `
		SELECT source_file FROM etl_imports WHERE table_name = $1 AND file_sha256 = $2`,
		tableName, fingerprint).Scan(&sourceFile)
	if err != nil {
		return RevertReport{TableName: tableName, Error: fmt.Errorf("%w: no ledger entry for %s/%s: %w", model.ErrIntegrity, tableName, fingerprint, err)}
	}

	n, err := l.deleteTargetRows(ctx, tableName, sourceFile)
	if err != nil {
		return RevertReport{TableName: tableName, SourceFile: sourceFile, Error: err}
	}

	if err := l.DeleteImportRecordByFingerprint(ctx, tableName, fingerprint); err != nil {
		return RevertReport{TableName: tableName, SourceFile: sourceFile, RowsDeleted: n, Error: err}
	}
	return RevertReport{TableName: tableName, SourceFile: sourceFile, RowsDeleted: n}
}

// RevertBySourceFile deletes every row of tableName whose source_file
// equals sourceFile, then deletes the matching ledger row(s). Used by
// `revert --source-file`.
func (l *Ledger) RevertBySourceFile(ctx context.Context, tableName, sourceFile string) RevertReport {
	n, err := l.deleteTargetRows(ctx, tableName, sourceFile)
	if err != nil {
		return RevertReport{TableName: tableName, SourceFile: sourceFile, Error: err}
	}

	if err := l.DeleteImportRecords(ctx, tableName, sourceFile); err != nil {
		return RevertReport{TableName: tableName, SourceFile: sourceFile, RowsDeleted: n, Error: err}
	}
	return RevertReport{TableName: tableName, SourceFile: sourceFile, RowsDeleted: n}
}

func (l *Ledger) deleteTargetRows(ctx context.Context, tableName, sourceFile string) (int64, error) {
	if !identifier.Valid(tableName) {
		return 0, fmt.Errorf("%w: %q is not a valid table name", model.ErrIntegrity, tableName)
	}
	tag, err := l.conn.Exec(ctx, fmt.Sprintf(`DELETE FROM "%s" WHERE source_file = $1`, tableName), sourceFile)
	if err != nil {
		return 0, fmt.Errorf("%w: delete rows from %s for %s: %w", model.ErrConnection, tableName, sourceFile, err)
	}
	return tag.RowsAffected(), nil
}

// RevertSchemaChanges walks tableName's schema-change entries for
// sourceFile in reverse chronological order and undoes what it can:
// add_column is undone with DROP COLUMN; alter_type and create_table are
// non-invertible and are reported rather than undone. When dryRun is
// true, nothing is executed — the plan alone is returned.
func (l *Ledger) RevertSchemaChanges(ctx context.Context, tableName, sourceFile string, dryRun bool) ([]RevertPlanItem, error) {
	if !identifier.Valid(tableName) {
		return nil, fmt.Errorf("%w: %q is not a valid table name", model.ErrIntegrity, tableName)
	}

	entries, err := l.SchemaChangesForTable(ctx, tableName, sourceFile)
	if err != nil {
		return nil, err
	}

	plan := make([]RevertPlanItem, 0, len(entries))

	for _, e := range entries {
		switch e.ChangeType {
		case ChangeAddColumn:
			plan = append(plan, RevertPlanItem{Entry: e, Invertible: true})
			if !dryRun {
				if _, err := l.conn.Exec(ctx, fmt.Sprintf(
					`ALTER TABLE "%s" DROP COLUMN "%s"`, tableName, e.ColumnName)); err != nil {
					return plan, fmt.Errorf("%w: drop column %s.%s: %w", model.ErrSchema, tableName, e.ColumnName, err)
				}
			}
		case ChangeAlterType:
			plan = append(plan, RevertPlanItem{
				Entry: e, Invertible: false,
				Reason: fmt.Sprintf("widening %s from %s to %s cannot be reversed without data loss", e.ColumnName, e.OldType, e.NewType),
			})
		case ChangeCreateTable:
			plan = append(plan, RevertPlanItem{
				Entry: e, Invertible: false,
				Reason: fmt.Sprintf("table %s was created by this import and is not dropped by revert", tableName),
			})
		}
	}

	return plan, nil
}
