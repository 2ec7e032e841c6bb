// Package dataset holds the in-memory tabular model profiled by dataiq.
// Every cell carries an explicit Kind tag assigned at ingestion.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLengthMismatch  = errors.New("columns have different lengths")
)

// Column is a named, typed sequence of values.
type Column struct {
	Name    string
	Storage StorageType
	Values  []Value
}

// Len returns the number of values in the column.
func (c Column) Len() int { return len(c.Values) }

// Dataset is an immutable snapshot of equal-length columns.
type Dataset struct {
	columns []Column
	rows    int
}

// New validates the columns and builds a Dataset. The column slices are
// copied so later changes by the caller do not leak into the snapshot.
func New(columns ...Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(columns))
	rows := -1
	cols := make([]Column, len(columns))

	for i, c := range columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("column %d: empty name", i)
		}
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}

		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("%w: %s has %d values, expected %d", ErrLengthMismatch, c.Name, len(c.Values), rows)
		}

		values := make([]Value, len(c.Values))
		copy(values, c.Values)
		cols[i] = Column{Name: c.Name, Storage: c.Storage, Values: values}
	}

	if rows < 0 {
		rows = 0
	}

	return &Dataset{columns: cols, rows: rows}, nil
}

// MustNew is New that panics on error. Intended for tests and literals.
func MustNew(columns ...Column) *Dataset {
	ds, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return ds
}

func (d *Dataset) NumRows() int { return d.rows }

func (d *Dataset) NumColumns() int { return len(d.columns) }

// Columns returns the columns in declared order. Callers must not modify
// the returned values.
func (d *Dataset) Columns() []Column { return d.columns }

func (d *Dataset) Column(i int) Column { return d.columns[i] }

// ColumnByName looks up a column by name.
func (d *Dataset) ColumnByName(name string) (Column, bool) {
	for _, c := range d.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the values of row i across all columns.
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for j, c := range d.columns {
		row[j] = c.Values[i]
	}
	return row
}

// RowKey is the full-row equality key used for duplicate detection. Each
// cell key is length-prefixed so no text content can shift a cell boundary.
func (d *Dataset) RowKey(i int) string {
	var sb strings.Builder
	for _, c := range d.columns {
		k := c.Values[i].Key()
		sb.WriteString(strconv.Itoa(len(k)))
		sb.WriteByte(':')
		sb.WriteString(k)
	}
	return sb.String()
}

// SelectRows returns a new dataset made of the given row indices, in order.
func (d *Dataset) SelectRows(idx []int) *Dataset {
	cols := make([]Column, len(d.columns))
	for j, c := range d.columns {
		values := make([]Value, len(idx))
		for k, i := range idx {
			values[k] = c.Values[i]
		}
		cols[j] = Column{Name: c.Name, Storage: c.Storage, Values: values}
	}
	return &Dataset{columns: cols, rows: len(idx)}
}

// WithColumn returns a copy of the dataset with column i replaced.
func (d *Dataset) WithColumn(i int, c Column) (*Dataset, error) {
	cols := make([]Column, len(d.columns))
	copy(cols, d.columns)
	cols[i] = c
	return New(cols...)
}

// Sample keeps n rows chosen with a seeded generator, preserving the
// original row order. Datasets with n or fewer rows are returned as is.
func (d *Dataset) Sample(n int, seed int64) *Dataset {
	if n <= 0 || d.rows <= n {
		return d
	}
	return d.SelectRows(SampleIndices(d.rows, n, seed))
}

// SampleIndices picks n distinct indices out of total, sorted ascending.
func SampleIndices(total, n int, seed int64) []int {
	if n >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(total)[:n]
	sort.Ints(idx)
	return idx
}
