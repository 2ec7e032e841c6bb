// Package profiler computes per-column quality metrics for a dataset and
// reduces them to a bounded health score.
package profiler

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// ErrEmptyDataset is returned when there is nothing to profile.
var ErrEmptyDataset = errors.New("dataset is empty or has no columns")

// ColumnProfile is the profile of one column. Numeric summary stats are
// only defined for int64/float64 storage with at least one value.
type ColumnProfile struct {
	Name              string       `json:"column"`
	StorageType       string       `json:"dtype"`
	InferredType      SemanticType `json:"inferred_type"`
	NullCount         int          `json:"null_count"`
	DuplicateRows     int          `json:"duplicate_rows"`
	TypeMismatchCount int          `json:"type_mismatch_count"`
	UniqueCount       int          `json:"unique_count"`
	Mean              Stat         `json:"mean"`
	Median            Stat         `json:"median"`
	Std               Stat         `json:"std"`
	Min               Stat         `json:"min"`
	Max               Stat         `json:"max"`
	TotalRows         int          `json:"total_rows"`
}

type Overall struct {
	Rows          int `json:"rows"`
	Columns       int `json:"columns"`
	DuplicateRows int `json:"duplicate_rows"`
	TotalNulls    int `json:"total_nulls"`
}

// Result is the outcome of one profiling call.
type Result struct {
	Name    string          `json:"name"`
	Columns []ColumnProfile `json:"columns"`
	Overall Overall         `json:"overall"`
}

// TotalMismatches sums type mismatches across columns.
func (r *Result) TotalMismatches() int {
	total := 0
	for _, c := range r.Columns {
		total += c.TypeMismatchCount
	}
	return total
}

type ProgressCallback func(processedColumns int, totalColumns int, dataset string)

type Profiler struct {
	logger   *zap.Logger
	Progress ProgressCallback
}

func New(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{logger: logger.Named("profiler")}
}

// Profile inspects every column of ds in declared order. It is deterministic
// and holds no state between calls.
func (p *Profiler) Profile(ds *dataset.Dataset, name string) (*Result, error) {
	if ds == nil || ds.NumColumns() == 0 {
		return nil, ErrEmptyDataset
	}

	start := time.Now()
	p.logger.Info("Profiling dataset",
		zap.String("dataset", name),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", ds.NumColumns()))

	dsStats := ComputeDatasetStats(ds)
	rows := ds.NumRows()

	result := &Result{
		Name:    name,
		Columns: make([]ColumnProfile, 0, ds.NumColumns()),
		Overall: Overall{
			Rows:          rows,
			Columns:       ds.NumColumns(),
			DuplicateRows: dsStats.DuplicateRows,
			TotalNulls:    dsStats.TotalNulls,
		},
	}

	for i, col := range ds.Columns() {
		inferred := InferType(col.Storage)
		stats := ComputeColumnStats(col, inferred)

		result.Columns = append(result.Columns, ColumnProfile{
			Name:              col.Name,
			StorageType:       col.Storage.String(),
			InferredType:      inferred,
			NullCount:         stats.NullCount,
			DuplicateRows:     dsStats.DuplicateRows,
			TypeMismatchCount: stats.TypeMismatchCount,
			UniqueCount:       stats.UniqueCount,
			Mean:              stats.Mean,
			Median:            stats.Median,
			Std:               stats.Std,
			Min:               stats.Min,
			Max:               stats.Max,
			TotalRows:         rows,
		})

		if p.Progress != nil {
			p.Progress(i+1, ds.NumColumns(), name)
		}
	}

	p.logger.Info("Profiling complete",
		zap.String("dataset", name),
		zap.Int("duplicate_rows", dsStats.DuplicateRows),
		zap.Int("total_nulls", dsStats.TotalNulls),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}
