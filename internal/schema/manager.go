// Package schema owns the DDL the engine issues against target tables:
// creating them, widening columns, and keeping the audit ledger in sync
// with every change it makes.
package schema

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgdatahub/pgdatahub/domain/model"
	"github.com/pgdatahub/pgdatahub/internal/ledger"
)

// SourceFileColumn and LoadTimestampColumn are the two engine-managed
// metadata columns every target table carries alongside its user columns.
const (
	SourceFileColumn    = "source_file"
	LoadTimestampColumn = "load_timestamp"
)

// Manager owns the three schema operations: ensure_table, reconcile, and
// introspect.
type Manager struct {
	conn   *pgx.Conn
	ledger *ledger.Ledger
}

// New creates a schema Manager bound to an open connection and the
// ledger it must record every DDL change to.
func New(conn *pgx.Conn, l *ledger.Ledger) *Manager {
	return &Manager{conn: conn, ledger: l}
}

// EnsureTable creates tableName with the given columns plus the two
// metadata columns if it does not already exist. It is a no-op if the
// table is already present — reconciliation of an existing table's
// columns is Reconcile's job, not this one's.
func (m *Manager) EnsureTable(ctx context.Context, tableName string, columns []model.ColumnInfo, sourceFile string) error {
	exists, err := m.tableExists(ctx, tableName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, `CREATE TABLE "%s" (`, tableName)
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `"%s" %s`, col.Name, col.Type.String())
	}
	if len(columns) > 0 {
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, `"%s" TEXT NOT NULL, "%s" TIMESTAMP NOT NULL`, SourceFileColumn, LoadTimestampColumn)
	b.WriteString(")")

	if _, err := m.conn.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("%w: create table %s: %w", model.ErrSchema, tableName, err)
	}

	now := time.Now().UTC()
	if err := m.ledger.RecordSchemaChange(ctx, ledger.SchemaChangeEntry{
		TableName: tableName, ChangeType: ledger.ChangeCreateTable,
		ColumnName: "", NewType: "", SourceFile: sourceFile, ChangedAt: now,
	}); err != nil {
		return err
	}

	for _, col := range columns {
		if err := m.ledger.RecordSchemaChange(ctx, ledger.SchemaChangeEntry{
			TableName: tableName, ChangeType: ledger.ChangeAddColumn,
			ColumnName: col.Name, NewType: col.Type.String(), SourceFile: sourceFile, ChangedAt: now,
		}); err != nil {
			return err
		}
	}

	return nil
}

// Reconcile aligns tableName's live columns with the incoming chunk's
// columns, using only safe widenings. For each incoming column: if it is
// absent from the table, add it. If present with a narrower type, widen
// it. If present with the same or a wider type, it is left untouched.
//
// After Reconcile returns without error, every incoming column's
// inferred type is assignable-without-loss to the table's live type for
// that column.
func (m *Manager) Reconcile(ctx context.Context, tableName string, columns []model.ColumnInfo, sourceFile string) error {
	live, err := m.Introspect(ctx, tableName)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	for _, col := range columns {
		liveType, exists := live[col.Name]
		if !exists {
			if _, err := m.conn.Exec(ctx, fmt.Sprintf(
				`ALTER TABLE "%s" ADD COLUMN "%s" %s`, tableName, col.Name, col.Type.String())); err != nil {
				return fmt.Errorf("%w: add column %s.%s: %w", model.ErrSchema, tableName, col.Name, err)
			}
			if err := m.ledger.RecordSchemaChange(ctx, ledger.SchemaChangeEntry{
				TableName: tableName, ChangeType: ledger.ChangeAddColumn,
				ColumnName: col.Name, NewType: col.Type.String(), SourceFile: sourceFile, ChangedAt: now,
			}); err != nil {
				return err
			}
			continue
		}

		widened := model.Widen(liveType, col.Type)
		if widened == liveType {
			continue
		}

		if err := m.alterColumnType(ctx, tableName, col.Name, liveType, widened); err != nil {
			return err
		}
		if err := m.ledger.RecordSchemaChange(ctx, ledger.SchemaChangeEntry{
			TableName: tableName, ChangeType: ledger.ChangeAlterType,
			ColumnName: col.Name, OldType: liveType.String(), NewType: widened.String(),
			SourceFile: sourceFile, ChangedAt: now,
		}); err != nil {
			return err
		}
	}

	return nil
}

// alterColumnType issues the ALTER COLUMN TYPE statement. Widening to
// TEXT uses an explicit cast (USING column::text); every other widening
// relies on Postgres's natural implicit numeric/temporal cast.
func (m *Manager) alterColumnType(ctx context.Context, tableName, columnName string, from, to model.ColumnType) error {
	stmt := fmt.Sprintf(`ALTER TABLE "%s" ALTER COLUMN "%s" TYPE %s`, tableName, columnName, to.String())
	if to == model.ColumnTypeText {
		stmt += fmt.Sprintf(` USING "%s"::text`, columnName)
	}
	if _, err := m.conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("%w: alter column %s.%s from %s to %s: %w",
			model.ErrSchema, tableName, columnName, from, to, err)
	}
	return nil
}

// Introspect returns the table's current {column: type} mapping read
// live from the catalog. There is no cache to invalidate: every call
// queries information_schema.columns directly, so a Reconcile that just
// ran is always visible to the very next Introspect.
func (m *Manager) Introspect(ctx context.Context, tableName string) (map[string]model.ColumnType, error) {
	rows, err := m.conn.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = $1`, tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: introspect %s: %w", model.ErrConnection, tableName, err)
	}
	defer rows.Close()

	result := make(map[string]model.ColumnType)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("%w: scan column: %w", model.ErrConnection, err)
		}
		if name == SourceFileColumn || name == LoadTimestampColumn {
			continue
		}
		result[name] = fromPostgresType(dataType)
	}
	return result, rows.Err()
}

func (m *Manager) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := m.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM information_schema.tables WHERE table_name = $1
		)`, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: table_exists %s: %w", model.ErrConnection, tableName, err)
	}
	return exists, nil
}

// fromPostgresType maps an information_schema.columns.data_type string
// back onto the ladder. Anything not recognized is treated as Text,
// matching the ladder's terminal, never-regress behavior.
func fromPostgresType(dataType string) model.ColumnType {
	switch strings.ToLower(dataType) {
	case "integer":
		return model.ColumnTypeInteger
	case "bigint":
		return model.ColumnTypeBigInt
	case "double precision":
		return model.ColumnTypeDouble
	case "date":
		return model.ColumnTypeDate
	case "timestamp without time zone", "timestamp with time zone", "timestamp":
		return model.ColumnTypeTimestamp
	case "boolean":
		return model.ColumnTypeBoolean
	default:
		return model.ColumnTypeText
	}
}
