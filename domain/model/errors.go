package model

import "errors"

// Sentinel errors identifying the error taxonomy. Wrap one of these with
// fmt.Errorf's %w so callers can dispatch on errors.Is without parsing
// messages.
var (
	// ErrRead covers anything that stops a workbook from being read: a
	// corrupt file, an unreadable sheet, or both the modern and legacy
	// readers failing on the same file.
	ErrRead = errors.New("read error")

	// ErrSchema covers DDL failures: a column type that cannot be
	// widened, or a rejected ALTER/CREATE statement.
	ErrSchema = errors.New("schema error")

	// ErrIntegrity covers data that violates an invariant the pipeline
	// relies on, such as a chunk whose column set drifted mid-file.
	ErrIntegrity = errors.New("integrity error")

	// ErrDuplicateImport names the case where a file's content
	// fingerprint already has a successful ledger entry for the same
	// target table. It is not a failure: the loader reports that case as
	// a skipped Result with a nil error and does not return this value.
	ErrDuplicateImport = errors.New("duplicate import")

	// ErrConnection covers anything to do with reaching or holding a
	// database connection.
	ErrConnection = errors.New("connection error")

	// ErrConfig covers an invalid or missing configuration value
	// discovered at startup.
	ErrConfig = errors.New("config error")
)
