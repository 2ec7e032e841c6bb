// Package cleaner applies the dataset transforms used before a cleaned copy
// is saved: duplicate removal, null handling and string normalization.
// Every transform returns a new dataset and leaves its input untouched.
package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/dataset"
)

var ErrUnknownStrategy = errors.New("strategy must be 'drop' or 'fill_mean'")

// Strategy selects how HandleNulls treats missing values.
type Strategy string

const (
	// StrategyDrop removes every row holding at least one null.
	StrategyDrop Strategy = "drop"
	// StrategyFillMean fills numeric columns with their mean and all other
	// columns with their most frequent value.
	StrategyFillMean Strategy = "fill_mean"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyDrop, StrategyFillMean:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

type Cleaner struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{logger: logger.Named("cleaner")}
}

// DropDuplicates keeps the first occurrence of every distinct row and
// reports how many rows were removed.
func (c *Cleaner) DropDuplicates(ds *dataset.Dataset) (*dataset.Dataset, int) {
	seen := make(map[string]struct{}, ds.NumRows())
	keep := make([]int, 0, ds.NumRows())

	for i := 0; i < ds.NumRows(); i++ {
		key := ds.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	removed := ds.NumRows() - len(keep)
	c.logger.Info("Removed duplicate rows", zap.Int("removed", removed))

	if removed == 0 {
		return ds, 0
	}
	return ds.SelectRows(keep), removed
}
