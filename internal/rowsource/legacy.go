package rowsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pgdatahub/pgdatahub/domain/model"
)

// legacySource reads a delimited-text file as the fallback tier for
// workbooks that carry a spreadsheet extension but are, in practice,
// plain text — the situation the modern reader's failure is meant to
// catch. The file is read as comma-separated; it is reread as
// tab-separated only when the comma parse of the header row fails, so a
// tab-separated file whose header parses cleanly as one comma field is
// read as a single column.
type legacySource struct {
	file      *os.File
	reader    *csv.Reader
	header    model.Header
	chunkSize int
	done      bool
}

func openLegacy(path string, chunkSize int) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty")
		}
		// The comma parse of the header failed: retry as tab-delimited
		// before giving up.
		f2, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("reparse as delimited text: %w", err)
		}
		tr := csv.NewReader(f2)
		tr.Comma = '\t'
		tr.FieldsPerRecord = -1
		tabHeader, tabErr := tr.Read()
		if tabErr != nil {
			_ = f2.Close()
			return nil, fmt.Errorf("parse as delimited text: %w", err)
		}
		return &legacySource{file: f2, reader: tr, header: model.NewHeader(tabHeader), chunkSize: chunkSize}, nil
	}

	return &legacySource{file: f, reader: r, header: model.NewHeader(header), chunkSize: chunkSize}, nil
}

// Next implements Source.
func (s *legacySource) Next() (Chunk, bool, error) {
	if s.done {
		return Chunk{}, false, nil
	}

	var records []model.Record
	for len(records) < s.chunkSize {
		row, err := s.reader.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			return Chunk{}, false, fmt.Errorf("read row: %w", err)
		}
		records = append(records, model.NewRecord(row))
	}

	if len(records) == 0 {
		return Chunk{}, false, nil
	}

	return Chunk{Header: s.header, Records: records}, true, nil
}

// Close implements Source.
func (s *legacySource) Close() error {
	return s.file.Close()
}
