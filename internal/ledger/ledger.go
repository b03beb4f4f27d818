// Package ledger owns the two audit tables — etl_imports and
// etl_schema_changes — that make the engine idempotent and auditable:
// every completed import and every DDL change the schema manager
// performs is recorded here, and nothing is ever overwritten.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgdatahub/pgdatahub/domain/model"
)

// ChangeType enumerates the schema-change kinds recorded in
// etl_schema_changes.
type ChangeType string

const (
	ChangeCreateTable ChangeType = "create_table"
	ChangeAddColumn   ChangeType = "add_column"
	ChangeAlterType   ChangeType = "alter_type"
)

// ImportEntry is one row of etl_imports.
type ImportEntry struct {
	ID         int64
	TableName  string
	SourceFile string
	FolderPath string
	FileSHA256 string
	RowCount   int64
	ImportedAt time.Time
}

// SchemaChangeEntry is one row of etl_schema_changes.
type SchemaChangeEntry struct {
	ID         int64
	TableName  string
	ChangeType ChangeType
	ColumnName string
	OldType    string
	NewType    string
	SourceFile string
	ChangedAt  time.Time
}

// Ledger wraps the audit tables behind the operations the rest of the
// engine needs: duplicate detection, append-only recording, and revert.
type Ledger struct {
	conn *pgx.Conn
}

// New wraps an open connection. CreateTrackingTables must be called once
// per database before any other method is used.
func New(conn *pgx.Conn) *Ledger {
	return &Ledger{conn: conn}
}

// CreateTrackingTables creates etl_imports and etl_schema_changes if they
// do not already exist. Safe to call on every startup.
func (l *Ledger) CreateTrackingTables(ctx context.Context) error {
	_, err := l.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS etl_imports (
			id SERIAL PRIMARY KEY,
			table_name TEXT NOT NULL,
			source_file TEXT NOT NULL,
			folder_path TEXT NOT NULL,
			file_sha256 TEXT NOT NULL,
			row_count BIGINT NOT NULL,
			imported_at TIMESTAMP NOT NULL,
			UNIQUE (table_name, source_file, file_sha256)
		)`)
	if err != nil {
		return fmt.Errorf("%w: create etl_imports: %w", model.ErrSchema, err)
	}

	_, err = l.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS etl_schema_changes (
			id SERIAL PRIMARY KEY,
			table_name TEXT NOT NULL,
			change_type TEXT NOT NULL,
			column_name TEXT NOT NULL,
			old_type TEXT,
			new_type TEXT NOT NULL,
			source_file TEXT NOT NULL,
			changed_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("%w: create etl_schema_changes: %w", model.ErrSchema, err)
	}

	return nil
}

// IsImported reports whether (tableName, sourceFile, fingerprint) already
// has a successful import entry.
func (l *Ledger) IsImported(ctx context.Context, tableName, sourceFile, fingerprint string) (bool, error) {
	var exists bool
	err := l.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM etl_imports
			WHERE table_name = $1 AND source_file = $2 AND file_sha256 = $3
		)`, tableName, sourceFile, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: is_imported: %w", model.ErrConnection, err)
	}
	return exists, nil
}

// RecordImport appends a new etl_imports row. The unique constraint on
// (table_name, source_file, file_sha256) makes a concurrent duplicate
// insert fail rather than silently double-count; callers are expected to
// have already checked IsImported under the same connection.
func (l *Ledger) RecordImport(ctx context.Context, e ImportEntry) error {
	_, err := l.conn.Exec(ctx, `
		INSERT INTO etl_imports (table_name, source_file, folder_path, file_sha256, row_count, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.TableName, e.SourceFile, e.FolderPath, e.FileSHA256, e.RowCount, e.ImportedAt)
	if err != nil {
		return fmt.Errorf("%w: record_import: %w", model.ErrIntegrity, err)
	}
	return nil
}

// RecordSchemaChange appends a new etl_schema_changes row.
func (l *Ledger) RecordSchemaChange(ctx context.Context, e SchemaChangeEntry) error {
	_, err := l.conn.Exec(ctx, `
		INSERT INTO etl_schema_changes (table_name, change_type, column_name, old_type, new_type, source_file, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.TableName, string(e.ChangeType), e.ColumnName, nullableString(e.OldType), e.NewType, e.SourceFile, e.ChangedAt)
	if err != nil {
		return fmt.Errorf("%w: record_schema_change: %w", model.ErrSchema, err)
	}
	return nil
}

// GetImportsByFile returns every ledger entry recorded for sourceFile
// across all tables, most recent first.
func (l *Ledger) GetImportsByFile(ctx context.Context, sourceFile string) ([]ImportEntry, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT id, table_name, source_file, folder_path, file_sha256, row_count, imported_at
		FROM etl_imports WHERE source_file = $1 ORDER BY imported_at DESC`, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("%w: get_imports_by_file: %w", model.ErrConnection, err)
	}
	defer rows.Close()

	var entries []ImportEntry
	for rows.Next() {
		var e ImportEntry
		if err := rows.Scan(&e.ID, &e.TableName, &e.SourceFile, &e.FolderPath, &e.FileSHA256, &e.RowCount, &e.ImportedAt); err != nil {
			return nil, fmt.Errorf("%w: scan import entry: %w", model.ErrConnection, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteImportRecords deletes every etl_imports row matching the given
// table and source file.
func (l *Ledger) DeleteImportRecords(ctx context.Context, tableName, sourceFile string) error {
	_, err := l.conn.Exec(ctx, `DELETE FROM etl_imports WHERE table_name = $1 AND source_file = $2`,
		tableName, sourceFile)
	if err != nil {
		return fmt.Errorf("%w: delete_import_records: %w", model.ErrConnection, err)
	}
	return nil
}

// DeleteImportRecordByFingerprint deletes the etl_imports row matching
// the given table and fingerprint.
func (l *Ledger) DeleteImportRecordByFingerprint(ctx context.Context, tableName, fingerprint string) error {
	_, err := l.conn.Exec(ctx, `DELETE FROM etl_imports WHERE table_name = $1 AND file_sha256 = $2`,
		tableName, fingerprint)
	if err != nil {
		return fmt.Errorf("%w: delete_import_record: %w", model.ErrConnection, err)
	}
	return nil
}

// SchemaChangesForTable returns every schema-change entry recorded for a
// table by one source file, in reverse chronological order (most recent first), which is the order
// RevertSchemaChanges needs to undo them safely.
func (l *Ledger) SchemaChangesForTable(ctx context.Context, tableName, sourceFile string) ([]SchemaChangeEntry, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT id, table_name, change_type, column_name, COALESCE(old_type, ''), new_type, source_file, changed_at
		FROM etl_schema_changes WHERE table_name = $1 AND source_file = $2 ORDER BY changed_at DESC, id DESC`,
		tableName, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("%w: schema_changes_for_table: %w", model.ErrConnection, err)
	}
	defer rows.Close()

	var entries []SchemaChangeEntry
	for rows.Next() {
		var e SchemaChangeEntry
		var ct string
		if err := rows.Scan(&e.ID, &e.TableName, &ct, &e.ColumnName, &e.OldType, &e.NewType, &e.SourceFile, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("%w: scan schema change entry: %w", model.ErrConnection, err)
		}
		e.ChangeType = ChangeType(ct)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
