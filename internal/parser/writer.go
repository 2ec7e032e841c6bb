package parser

import (
	"encoding/csv"
	"io"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// WriteCSV writes ds as comma separated text with a header row. Nulls are
// written as empty fields.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.Names()); err != nil {
		return err
	}

	record := make([]string, ds.NumColumns())
	for i := 0; i < ds.NumRows(); i++ {
		for j, col := range ds.Columns() {
			record[j] = col.Values[i].String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
