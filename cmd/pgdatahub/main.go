// Command pgdatahub runs the spreadsheet-to-Postgres ingestion engine:
// it drives a full ETL pass over a directory of workbooks, resumes one
// that stopped partway, reports what has already been imported, and
// reverts an import or a schema change by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/pgdatahub/pgdatahub/internal/config"
	"github.com/pgdatahub/pgdatahub/internal/ledger"
	"github.com/pgdatahub/pgdatahub/internal/logging"
	"github.com/pgdatahub/pgdatahub/internal/orchestrator"
	"github.com/pgdatahub/pgdatahub/internal/pgdb"
	"github.com/pgdatahub/pgdatahub/internal/schema"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	slog.Info("resolved configuration", "config", cfg.String())

	ctx := logging.WithRunID(context.Background(), uuid.NewString())

	var exitCode int
	switch os.Args[1] {
	case "etl":
		exitCode = runETL(ctx, cfg, os.Args[2:], false)
	case "resume":
		exitCode = runETL(ctx, cfg, os.Args[2:], true)
	case "status":
		exitCode = runStatus(ctx, cfg, os.Args[2:])
	case "revert":
		exitCode = runRevert(ctx, cfg, os.Args[2:])
	case "revert-schema":
		exitCode = runRevertSchema(ctx, cfg, os.Args[2:])
	default:
		usage()
		exitCode = 2
	}

	os.Exit(exitCode)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  pgdatahub etl <data_root>
  pgdatahub resume <data_root>
  pgdatahub status
  pgdatahub revert --table T (--source-file F | --file-hash H)
  pgdatahub revert-schema --table T --source-file F [--dry-run]`)
}

func runETL(ctx context.Context, cfg *config.Config, args []string, resume bool) int {
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	sheetConfigPath := fs.String("sheet-config", "", "path to the YAML sheet-name mapping")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "data_root argument is required")
		return 2
	}
	dataRoot, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve data root:", err)
		return 1
	}

	var checkpoint *orchestrator.Checkpoint
	if resume {
		cp, ok, err := orchestrator.ReadCheckpoint(dataRoot)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read checkpoint:", err)
			return 1
		}
		if !ok {
			slog.Info("no checkpoint found, nothing to resume")
			return 0
		}
		slog.Info("resuming from checkpoint",
			"current_folder", cp.CurrentFolder,
			"remaining_files_in_current", len(cp.RemainingFilesInCurrent),
			"remaining_folders", len(cp.RemainingFolders))
		checkpoint = &cp
	}

	var sheetMap *config.SheetMap
	if *sheetConfigPath != "" {
		sheetMap, err = config.LoadSheetMap(*sheetConfigPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load sheet config:", err)
			return 1
		}
	}

	var (
		conn *pgx.Conn
		l    *ledger.Ledger
		sm   *schema.Manager
	)

	if cfg.ETL.SkipDB {
		slog.Info("SKIP_DB set: computing normalize/infer/reconcile-plan only, no database writes")
	} else {
		conn, err = pgdb.Connect(ctx, cfg.Database.URL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "connect:", err)
			return 1
		}
		defer conn.Close(ctx)

		l = ledger.New(conn)
		if err := l.CreateTrackingTables(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "create tracking tables:", err)
			return 1
		}
		sm = schema.New(conn, l)
	}

	orch := orchestrator.New(conn, sm, l, sheetMap, cfg.ETL, dataRoot)

	var summary orchestrator.Summary
	if checkpoint != nil {
		summary, err = orch.Resume(ctx, *checkpoint)
	} else {
		summary, err = orch.Run(ctx)
	}
	logSummary(summary)

	if err != nil {
		fmt.Fprintln(os.Stderr, "run failed:", err)
		return 1
	}
	if summary.Checkpointed {
		return 1
	}
	return 0
}

func logSummary(summary orchestrator.Summary) {
	slog.Info("run summary",
		"files_processed", summary.FilesProcessed,
		"files_skipped", summary.FilesSkipped,
		"rows_imported", summary.RowsImported,
		"errors", len(summary.Errors),
		"checkpointed", summary.Checkpointed,
	)
	for _, e := range summary.Errors {
		slog.Error("run error", "detail", e)
	}
}

func runStatus(ctx context.Context, cfg *config.Config, _ []string) int {
	pool, err := pgdb.ConnectPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		return 1
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT table_name, count(*) AS imports, sum(row_count) AS rows, max(imported_at) AS last_import
		FROM etl_imports GROUP BY table_name ORDER BY table_name`)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query status:", err)
		return 1
	}
	defer rows.Close()

	fmt.Printf("%-40s %10s %12s %s\n", "TABLE", "IMPORTS", "ROWS", "LAST IMPORT")
	for rows.Next() {
		var table string
		var imports, totalRows int64
		var lastImport any
		if err := rows.Scan(&table, &imports, &totalRows, &lastImport); err != nil {
			fmt.Fprintln(os.Stderr, "scan status row:", err)
			return 1
		}
		fmt.Printf("%-40s %10d %12d %v\n", table, imports, totalRows, lastImport)
	}
	return 0
}

func runRevert(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("revert", flag.ContinueOnError)
	table := fs.String("table", "", "target table name")
	sourceFile := fs.String("source-file", "", "source file path to revert")
	fileHash := fs.String("file-hash", "", "content fingerprint to revert")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *table == "" || (*sourceFile == "" && *fileHash == "") {
		fmt.Fprintln(os.Stderr, "revert requires --table and one of --source-file/--file-hash")
		return 2
	}

	conn, err := pgdb.Connect(ctx, cfg.Database.URL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		return 1
	}
	defer conn.Close(ctx)

	l := ledger.New(conn)

	if *sourceFile != "" {
		entries, err := l.GetImportsByFile(ctx, *sourceFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list imports for source file:", err)
			return 1
		}
		for _, e := range entries {
			fmt.Printf("ledger entry: table=%s rows=%d imported_at=%s\n", e.TableName, e.RowCount, e.ImportedAt.Format(time.RFC3339))
		}
	}

	var report ledger.RevertReport
	if *fileHash != "" {
		report = l.RevertByFingerprint(ctx, *table, *fileHash)
	} else {
		report = l.RevertBySourceFile(ctx, *table, *sourceFile)
	}

	if report.Error != nil {
		fmt.Fprintln(os.Stderr, "revert failed:", report.Error)
		return 1
	}
	fmt.Printf("reverted %d rows from %s (source=%s)\n", report.RowsDeleted, report.TableName, report.SourceFile)
	return 0
}

func runRevertSchema(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("revert-schema", flag.ContinueOnError)
	table := fs.String("table", "", "target table name")
	sourceFile := fs.String("source-file", "", "source file whose schema changes should be reverted")
	dryRun := fs.Bool("dry-run", false, "list the plan without executing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *table == "" || *sourceFile == "" {
		fmt.Fprintln(os.Stderr, "revert-schema requires --table and --source-file")
		return 2
	}

	conn, err := pgdb.Connect(ctx, cfg.Database.URL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		return 1
	}
	defer conn.Close(ctx)

	l := ledger.New(conn)
	plan, err := l.RevertSchemaChanges(ctx, *table, *sourceFile, *dryRun)
	if err != nil {
		fmt.Fprintln(os.Stderr, "revert-schema failed:", err)
		return 1
	}

	for _, item := range plan {
		if item.Invertible {
			fmt.Printf("%s column %s.%s\n", verb(*dryRun), item.Entry.TableName, item.Entry.ColumnName)
		} else {
			fmt.Printf("skip %s: %s\n", item.Entry.TableName, item.Reason)
		}
	}
	return 0
}

func verb(dryRun bool) string {
	if dryRun {
		return "would drop"
	}
	return "dropped"
}
