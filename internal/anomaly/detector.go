// Package anomaly flags numeric outliers per column with an isolation
// forest. Results are informational and do not feed the health score.
package anomaly

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/dataset"
)

const (
	DefaultTrees      = 100
	DefaultSampleSize = 256
	DefaultSeed       = 42

	// threshold matches the "auto" contamination offset.
	threshold = 0.5
)

type ColumnOutliers struct {
	Column   string `json:"column"`
	Outliers int    `json:"outliers"`
	Checked  int    `json:"checked"`
}

type Result struct {
	PerColumn []ColumnOutliers `json:"per_column"`
}

func (r Result) TotalOutliers() int {
	total := 0
	for _, c := range r.PerColumn {
		total += c.Outliers
	}
	return total
}

type Detector struct {
	Trees      int
	SampleSize int
	Seed       int64
	logger     *zap.Logger
}

func NewDetector(cfg config.AnomalyConfig, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Detector{
		Trees:      cfg.Trees,
		SampleSize: cfg.SampleSize,
		Seed:       cfg.Seed,
		logger:     logger.Named("anomaly"),
	}
	if d.Trees <= 0 {
		d.Trees = DefaultTrees
	}
	if d.SampleSize <= 0 {
		d.SampleSize = DefaultSampleSize
	}
	return d
}

// Detect fits one forest per int64/float64 column on its non-null values
// and counts the values scoring above the threshold. Each column gets its
// own generator seeded with Seed, so results do not depend on column order.
func (d *Detector) Detect(ds *dataset.Dataset) Result {
	logger := d.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Starting anomaly detection")

	var result Result
	for _, col := range ds.Columns() {
		if !col.Storage.IsNumeric() {
			continue
		}
		xs := numericValues(col)
		result.PerColumn = append(result.PerColumn, ColumnOutliers{
			Column:   col.Name,
			Outliers: d.countOutliers(xs),
			Checked:  len(xs),
		})
	}

	if len(result.PerColumn) == 0 {
		logger.Warn("No numeric columns found; skipping anomaly detection")
		return result
	}

	logger.Info("Anomaly detection complete",
		zap.Int("columns", len(result.PerColumn)),
		zap.Int("outliers", result.TotalOutliers()))
	return result
}

// Scores returns the anomaly score of every value of xs.
func (d *Detector) Scores(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(d.Seed))
	f := fitForest(append([]float64(nil), xs...), d.trees(), d.sampleSize(), rng)

	scores := make([]float64, len(xs))
	for i, x := range xs {
		scores[i] = f.score(x)
	}
	return scores
}

func (d *Detector) countOutliers(xs []float64) int {
	if constant(xs) {
		return 0
	}
	n := 0
	for _, s := range d.Scores(xs) {
		if s > threshold {
			n++
		}
	}
	return n
}

func (d *Detector) trees() int {
	if d.Trees <= 0 {
		return DefaultTrees
	}
	return d.Trees
}

func (d *Detector) sampleSize() int {
	if d.SampleSize <= 0 {
		return DefaultSampleSize
	}
	return d.SampleSize
}

func numericValues(col dataset.Column) []float64 {
	xs := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if f, ok := v.AsFloat(); ok {
			xs = append(xs, f)
		}
	}
	return xs
}

// constant reports whether xs has fewer than two distinct values. Such
// columns cannot be split and have no outliers.
func constant(xs []float64) bool {
	for _, x := range xs[min(1, len(xs)):] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
