package cleaner

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// NormalizeStrings trims surrounding whitespace and applies NFKC to every
// string and object column. Normalized columns are stored as strings; nulls
// stay null.
func (c *Cleaner) NormalizeStrings(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out := ds
	var touched []string

	for i, col := range ds.Columns() {
		if col.Storage != dataset.StorageText && col.Storage != dataset.StorageObject {
			continue
		}

		values := make([]dataset.Value, len(col.Values))
		for j, v := range col.Values {
			if v.IsNull() {
				values[j] = v
				continue
			}
			values[j] = dataset.Text(normalize(v.String()))
		}

		var err error
		out, err = out.WithColumn(i, dataset.Column{Name: col.Name, Storage: dataset.StorageText, Values: values})
		if err != nil {
			return nil, err
		}
		touched = append(touched, col.Name)
	}

	c.logger.Info("Normalized string columns", zap.Strings("columns", touched))
	return out, nil
}

func normalize(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}
