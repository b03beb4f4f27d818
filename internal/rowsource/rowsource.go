// Package rowsource implements the pull-based chunk iterator contract
// over a single sheet of a workbook file: a modern-format reader first,
// falling back to a delimited-text reader for spreadsheets that carry a
// misleading extension.
package rowsource

import (
	"errors"
	"fmt"

	"github.com/pgdatahub/pgdatahub/domain/model"
)

// Chunk is a batch of up to ChunkSize rows sharing one header. Every
// chunk from a Source carries the same header, the one read when the
// Source was opened; chunks never add columns. The loader rejects a
// chunk whose normalized header differs from the first chunk's. A row
// shorter than the header is null in its missing trailing columns.
type Chunk struct {
	Header  model.Header
	Records []model.Record
}

// Source is a finite, non-restartable pull iterator over one sheet.
// Next returns io.EOF-style exhaustion via the ok=false return, not an
// error; a non-nil error means reading failed outright and the caller
// should treat the file as unreadable.
type Source interface {
	// Next returns the next chunk, or ok=false once the sheet is
	// exhausted. Once ok is false or err is non-nil, further calls are
	// undefined.
	Next() (chunk Chunk, ok bool, err error)
	// Close releases any file handles held by the source.
	Close() error
}

// ErrBothReadersFailed is wrapped by the combined error Open returns when
// neither the modern nor the legacy reader could open the file.
var ErrBothReadersFailed = errors.New("neither modern nor legacy reader could open file")

// Open attempts the modern-format reader first; on failure it falls back
// to the legacy delimited-text reader. If both fail, the returned error
// wraps model.ErrRead and carries both underlying causes.
func Open(path, sheetName string, chunkSize int) (Source, error) {
	modern, modernErr := openModern(path, sheetName, chunkSize)
	if modernErr == nil {
		return modern, nil
	}

	legacy, legacyErr := openLegacy(path, chunkSize)
	if legacyErr == nil {
		return legacy, nil
	}

	return nil, fmt.Errorf("%w: %w: modern reader: %v, legacy reader: %v",
		model.ErrRead, ErrBothReadersFailed, modernErr, legacyErr)
}
