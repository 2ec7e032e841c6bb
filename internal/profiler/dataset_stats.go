package profiler

import "github.com/peekknuf/dataiq/internal/dataset"

type DatasetStats struct {
	DuplicateRows int
	TotalNulls    int
}

// ComputeDatasetStats counts rows that repeat an earlier row exactly, and
// nulls across every column. The first occurrence of a row is not a duplicate.
func ComputeDatasetStats(ds *dataset.Dataset) DatasetStats {
	var stats DatasetStats
	if ds == nil {
		return stats
	}

	seen := make(map[string]struct{}, ds.NumRows())
	for i := 0; i < ds.NumRows(); i++ {
		key := ds.RowKey(i)
		if _, ok := seen[key]; ok {
			stats.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
	}

	for _, col := range ds.Columns() {
		for _, v := range col.Values {
			if v.IsNull() {
				stats.TotalNulls++
			}
		}
	}

	return stats
}
