package rowsource

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pgdatahub/pgdatahub/domain/model"
)

// modernSource reads a single named sheet of an OOXML workbook
// (.xlsx/.xlsm) via excelize's row iterator, grouping rows into
// fixed-size chunks as they're pulled.
type modernSource struct {
	file      *excelize.File
	rows      *excelize.Rows
	header    model.Header
	chunkSize int
	done      bool
}

func openModern(path, sheetName string, chunkSize int) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheet := sheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		_ = f.Close()
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open row iterator for sheet %q: %w", sheet, err)
	}

	src := &modernSource{file: f, rows: rows, chunkSize: chunkSize}

	if err := src.readHeader(); err != nil {
		_ = src.Close()
		return nil, err
	}

	return src, nil
}

func (s *modernSource) readHeader() error {
	for s.rows.Next() {
		row, err := s.rows.Columns()
		if err != nil {
			return fmt.Errorf("read header row: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		s.header = model.NewHeader(row)
		return nil
	}
	return fmt.Errorf("sheet is empty")
}

// Next implements Source.
func (s *modernSource) Next() (Chunk, bool, error) {
	if s.done {
		return Chunk{}, false, nil
	}

	var records []model.Record
	for len(records) < s.chunkSize && s.rows.Next() {
		row, err := s.rows.Columns()
		if err != nil {
			return Chunk{}, false, fmt.Errorf("read row: %w", err)
		}
		records = append(records, model.NewRecord(row))
	}

	if err := s.rows.Error(); err != nil {
		return Chunk{}, false, fmt.Errorf("row iteration: %w", err)
	}

	if len(records) == 0 {
		s.done = true
		return Chunk{}, false, nil
	}

	// A short chunk (fewer rows than chunkSize) means the iterator is
	// exhausted; the next Next() call will report ok=false immediately,
	// but we don't know that yet without trying, so leave done unset
	// and let the row iterator itself answer on the following call.
	return Chunk{Header: s.header, Records: records}, true, nil
}

// Close implements Source.
func (s *modernSource) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
