package cleaner

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// HandleNulls applies strategy to ds.
func (c *Cleaner) HandleNulls(ds *dataset.Dataset, strategy Strategy) (*dataset.Dataset, error) {
	switch strategy {
	case StrategyDrop:
		return c.dropNullRows(ds), nil
	case StrategyFillMean:
		return c.fillNulls(ds)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

func (c *Cleaner) dropNullRows(ds *dataset.Dataset) *dataset.Dataset {
	keep := make([]int, 0, ds.NumRows())

rows:
	for i := 0; i < ds.NumRows(); i++ {
		for _, col := range ds.Columns() {
			if col.Values[i].IsNull() {
				continue rows
			}
		}
		keep = append(keep, i)
	}

	dropped := ds.NumRows() - len(keep)
	c.logger.Info("Dropped rows with nulls", zap.Int("dropped", dropped))
	if dropped == 0 {
		return ds
	}
	return ds.SelectRows(keep)
}

func (c *Cleaner) fillNulls(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out := ds
	for i, col := range ds.Columns() {
		if !hasNull(col) {
			continue
		}

		var (
			filled dataset.Column
			ok     bool
		)
		if col.Storage.IsNumeric() {
			filled, ok = fillMean(col)
			if ok {
				c.logger.Info("Filled nulls with mean", zap.String("column", col.Name))
			}
		} else {
			filled, ok = fillMode(col), true
			c.logger.Info("Filled nulls with mode", zap.String("column", col.Name))
		}
		if !ok {
			continue
		}

		var err error
		if out, err = out.WithColumn(i, filled); err != nil {
			return nil, fmt.Errorf("fill column %s: %w", col.Name, err)
		}
	}
	return out, nil
}

func hasNull(col dataset.Column) bool {
	for _, v := range col.Values {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// fillMean replaces nulls with the column mean. An int64 column whose mean
// has a fractional part is widened to float64. Columns without any numeric
// value are left alone.
func fillMean(col dataset.Column) (dataset.Column, bool) {
	var (
		sum float64
		n   int
	)
	for _, v := range col.Values {
		if f, ok := v.AsFloat(); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return col, false
	}

	mean := sum / float64(n)
	widen := col.Storage == dataset.StorageInt && mean != math.Trunc(mean)

	fill := dataset.Float(mean)
	storage := col.Storage
	if col.Storage == dataset.StorageInt && !widen {
		fill = dataset.Int(int64(mean))
	}
	if widen {
		storage = dataset.StorageFloat
	}

	values := make([]dataset.Value, len(col.Values))
	for i, v := range col.Values {
		switch {
		case v.IsNull():
			values[i] = fill
		case widen && v.Kind() == dataset.KindInteger:
			f, _ := v.AsFloat()
			values[i] = dataset.Float(f)
		default:
			values[i] = v
		}
	}
	return dataset.Column{Name: col.Name, Storage: storage, Values: values}, true
}

// fillMode replaces nulls with the most frequent value, ties going to the
// value seen first. A column with no values is filled with empty text.
func fillMode(col dataset.Column) dataset.Column {
	counts := make(map[string]int)
	var order []dataset.Value
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		k := v.Key()
		if counts[k] == 0 {
			order = append(order, v)
		}
		counts[k]++
	}

	mode := dataset.Text("")
	best := 0
	for _, v := range order {
		if n := counts[v.Key()]; n > best {
			best, mode = n, v
		}
	}

	values := make([]dataset.Value, len(col.Values))
	for i, v := range col.Values {
		if v.IsNull() {
			values[i] = mode
		} else {
			values[i] = v
		}
	}

	storage := col.Storage
	if best == 0 {
		storage = dataset.StorageText
	}
	return dataset.Column{Name: col.Name, Storage: storage, Values: values}
}
