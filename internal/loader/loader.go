// Package loader drives a single file's journey from disk into a target
// table: fingerprinting, duplicate detection, chunked reading, type
// inference, schema reconciliation, and the bulk insert itself.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgdatahub/pgdatahub/domain/model"
	"github.com/pgdatahub/pgdatahub/internal/identifier"
	"github.com/pgdatahub/pgdatahub/internal/ledger"
	"github.com/pgdatahub/pgdatahub/internal/rowsource"
	"github.com/pgdatahub/pgdatahub/internal/schema"
)

// Result summarizes one file's load.
type Result struct {
	TableName   string
	SourceFile  string
	RowsLoaded  int64
	Skipped     bool // true when the file's fingerprint was already imported
	Fingerprint string
}

// Loader ties together the schema manager, the ledger, and a row source
// to load one file at a time into its target table.
type Loader struct {
	conn   *pgx.Conn
	schema *schema.Manager
	ledger *ledger.Ledger
}

// New creates a Loader bound to a connection and the schema/ledger
// components that share it.
func New(conn *pgx.Conn, sm *schema.Manager, l *ledger.Ledger) *Loader {
	return &Loader{conn: conn, schema: sm, ledger: l}
}

// Fingerprint computes the SHA-256 digest of a file's contents, used to
// detect byte-identical re-imports regardless of file name or path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for fingerprint: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LoadFile runs the full per-file algorithm: check the ledger for a
// duplicate fingerprint, open a row source (modern reader first, legacy
// fallback), then for every chunk normalize headers, infer types,
// reconcile the target schema, and insert — recording the import only
// after the last chunk succeeds.
func (ld *Loader) LoadFile(ctx context.Context, path, sheetName string, tableName, folderPath string, chunkSize int) (Result, error) {
	fingerprint, err := Fingerprint(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", model.ErrRead, err)
	}

	imported, err := ld.ledger.IsImported(ctx, tableName, path, fingerprint)
	if err != nil {
		return Result{}, err
	}
	if imported {
		return Result{TableName: tableName, SourceFile: path, Skipped: true, Fingerprint: fingerprint}, nil
	}

	src, err := rowsource.Open(path, sheetName, chunkSize)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	var (
		normalizedHeader model.Header
		rowsLoaded       int64
		chunkIndex       int
	)

	loadedAt := time.Now().UTC()

	for {
		chunk, ok, err := src.Next()
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %w", model.ErrRead, path, err)
		}
		if !ok {
			break
		}

		hdr := model.NewHeader(identifier.NormalizeAndDedup([]string(chunk.Header)))
		if chunkIndex == 0 {
			normalizedHeader = hdr
		} else if !hdr.Equal(normalizedHeader) {
			return Result{}, fmt.Errorf("%w: %s: column set drifted mid-file", model.ErrIntegrity, path)
		}

		tbl := model.NewTable(tableName, normalizedHeader, chunk.Records)
		columns := tbl.ColumnInfo()

		if chunkIndex == 0 {
			if err := ld.schema.EnsureTable(ctx, tableName, columns, path); err != nil {
				return Result{}, err
			}
		}
		if err := ld.schema.Reconcile(ctx, tableName, columns, path); err != nil {
			return Result{}, err
		}

		liveTypes, err := ld.schema.Introspect(ctx, tableName)
		if err != nil {
			return Result{}, err
		}

		n, err := ld.insertChunk(ctx, tbl.Name(), tbl.Header(), tbl.Records(), liveTypes, path, loadedAt)
		if err != nil {
			return Result{}, err
		}
		rowsLoaded += n
		chunkIndex++
	}

	if err := ld.ledger.RecordImport(ctx, ledger.ImportEntry{
		TableName:  tableName,
		SourceFile: path,
		FolderPath: folderPath,
		FileSHA256: fingerprint,
		RowCount:   rowsLoaded,
		ImportedAt: loadedAt,
	}); err != nil {
		return Result{}, err
	}

	return Result{TableName: tableName, SourceFile: path, RowsLoaded: rowsLoaded, Fingerprint: fingerprint}, nil
}

// DryRunResult summarizes what LoadFile would have done to a file
// without a database connection: PlanFile's counterpart to Result.
type DryRunResult struct {
	SourceFile string
	RowsRead   int64
	Columns    []model.ColumnInfo
}

// PlanFile runs the read/normalize/infer portion of LoadFile's algorithm
// without a schema manager, a ledger, or a connection: it opens the row
// source, normalizes each chunk's header (rejecting one that differs
// from the first chunk's), and widens the planned column
// types chunk by chunk exactly as Reconcile would, but never issues any
// DDL or DML. Used for SKIP_DB dry runs, where the caller wants to know
// what a real run would infer and how many rows it would read, without
// touching the target database at all.
func PlanFile(ctx context.Context, path, sheetName string, chunkSize int) (DryRunResult, error) {
	src, err := rowsource.Open(path, sheetName, chunkSize)
	if err != nil {
		return DryRunResult{}, err
	}
	defer src.Close()

	var (
		normalizedHeader model.Header
		rowsRead         int64
		chunkIndex       int
	)
	planned := make(map[string]model.ColumnType)

	for {
		if err := ctx.Err(); err != nil {
			return DryRunResult{}, err
		}

		chunk, ok, err := src.Next()
		if err != nil {
			return DryRunResult{}, fmt.Errorf("%w: %s: %w", model.ErrRead, path, err)
		}
		if !ok {
			break
		}

		hdr := model.NewHeader(identifier.NormalizeAndDedup([]string(chunk.Header)))
		if chunkIndex == 0 {
			normalizedHeader = hdr
		} else if !hdr.Equal(normalizedHeader) {
			return DryRunResult{}, fmt.Errorf("%w: %s: column set drifted mid-file", model.ErrIntegrity, path)
		}

		tbl := model.NewTable("", normalizedHeader, chunk.Records)
		for _, col := range tbl.ColumnInfo() {
			if existing, ok := planned[col.Name]; ok {
				planned[col.Name] = model.Widen(existing, col.Type)
			} else {
				planned[col.Name] = col.Type
			}
		}

		rowsRead += int64(len(chunk.Records))
		chunkIndex++
	}

	columns := make([]model.ColumnInfo, len(normalizedHeader))
	for i, name := range normalizedHeader {
		columns[i] = model.ColumnInfo{Name: name, Type: planned[name]}
	}

	return DryRunResult{SourceFile: path, RowsRead: rowsRead, Columns: columns}, nil
}

// insertChunk bulk-loads one chunk's records as a single batched
// statement via CopyFrom, appending the two metadata columns to every
// row. Every cell is converted to the table's live column type — not
// just the chunk's own inferred type — so a chunk that is narrower than
// what an earlier chunk already widened the table to still inserts
// cleanly. There is no suspension point inside this call: either the
// whole chunk lands or none of it does.
func (ld *Loader) insertChunk(ctx context.Context, tableName string, header model.Header, records []model.Record, liveTypes map[string]model.ColumnType, sourceFile string, loadedAt time.Time) (int64, error) {
	columnNames := make([]string, 0, len(header)+2)
	columnNames = append(columnNames, []string(header)...)
	columnNames = append(columnNames, schema.SourceFileColumn, schema.LoadTimestampColumn)

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, 0, len(header)+2)
		for col := range header {
			var raw string
			if col < len(rec) {
				raw = rec[col]
			}
			ct := liveTypes[header[col]]
			v, err := model.ParseValue(raw, ct)
			if err != nil {
				return 0, fmt.Errorf("%w: %s.%s: %w", model.ErrIntegrity, tableName, header[col], err)
			}
			row = append(row, v)
		}
		row = append(row, sourceFile, loadedAt)
		rows[i] = row
	}

	n, err := ld.conn.CopyFrom(ctx, pgx.Identifier{tableName}, columnNames, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%w: insert chunk into %s: %w", model.ErrIntegrity, tableName, err)
	}
	return n, nil
}
