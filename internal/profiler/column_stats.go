package profiler

import (
	"math"
	"sort"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// ColumnStats holds the per-column quality and summary metrics.
type ColumnStats struct {
	NullCount         int
	UniqueCount       int
	TypeMismatchCount int

	Mean   Stat
	Median Stat
	Std    Stat
	Min    Stat
	Max    Stat
}

// columnAccumulator collects stats one value at a time.
type columnAccumulator struct {
	inferred SemanticType
	numeric  bool

	nullCount     int
	mismatchCount int
	uniqueValues  map[string]struct{}
	numbers       []float64
}

func newColumnAccumulator(storage dataset.StorageType, inferred SemanticType, size int) *columnAccumulator {
	acc := &columnAccumulator{
		inferred:     inferred,
		numeric:      storage.IsNumeric(),
		uniqueValues: make(map[string]struct{}),
	}
	if acc.numeric {
		acc.numbers = make([]float64, 0, size)
	}
	return acc
}

func (a *columnAccumulator) Update(v dataset.Value) {
	if v.IsNull() {
		a.nullCount++
		return
	}

	a.uniqueValues[v.Key()] = struct{}{}

	if !conforms(v, a.inferred) {
		a.mismatchCount++
	}

	if a.numeric {
		if f, ok := v.AsFloat(); ok {
			a.numbers = append(a.numbers, f)
		}
	}
}

func (a *columnAccumulator) Stats() ColumnStats {
	stats := ColumnStats{
		NullCount:         a.nullCount,
		UniqueCount:       len(a.uniqueValues),
		TypeMismatchCount: a.mismatchCount,
	}
	if a.numeric {
		summarize(&stats, a.numbers)
	}
	return stats
}

// summarize fills the numeric summary. All stats stay undefined for an
// empty slice and the sample std needs at least two values.
func summarize(stats *ColumnStats, values []float64) {
	n := len(values)
	if n == 0 {
		return
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	stats.Mean = Some(mean)
	stats.Min = Some(sorted[0])
	stats.Max = Some(sorted[n-1])

	if n%2 == 1 {
		stats.Median = Some(sorted[n/2])
	} else {
		stats.Median = Some((sorted[n/2-1] + sorted[n/2]) / 2)
	}

	if n >= 2 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		stats.Std = Some(math.Sqrt(sq / float64(n-1)))
	}
}

// ComputeColumnStats profiles a single column against its inferred type.
// Values that fail the per-value conformance check are counted, never fatal.
func ComputeColumnStats(col dataset.Column, inferred SemanticType) ColumnStats {
	acc := newColumnAccumulator(col.Storage, inferred, len(col.Values))
	for _, v := range col.Values {
		acc.Update(v)
	}
	return acc.Stats()
}
