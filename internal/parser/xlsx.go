package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the header and rows of one sheet. Cells come back as their
// formatted text and go through the same inference as delimited files.
func readXLSX(r io.Reader, sheet string) (*table, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer xl.Close()

	if sheet == "" {
		sheet = xl.GetSheetName(0)
		if sheet == "" {
			list := xl.GetSheetList()
			if len(list) == 0 {
				return nil, errors.New("no sheets found in xlsx file")
			}
			sheet = list[0]
		}
	}

	rows, err := xl.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New("xlsx file is empty")
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &table{header: normalizeHeader(header)}
	width := len(t.header)

	rowNum := 1
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum, err)
		}
		if len(cols) == 0 {
			continue
		}
		if len(cols) > width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrRaggedRow, rowNum, len(cols), width)
		}
		for len(cols) < width {
			cols = append(cols, "")
		}
		t.rows = append(t.rows, cols)
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return t, nil
}
