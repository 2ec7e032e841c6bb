package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dataiq/internal/dataset"
)

func vals(vs ...dataset.Value) []dataset.Value { return vs }

func sampleDataset() *dataset.Dataset {
	return dataset.MustNew(
		dataset.Column{Name: "a", Storage: dataset.StorageFloat, Values: vals(
			dataset.Float(1), dataset.Float(1), dataset.Float(2), dataset.Null(),
		)},
		dataset.Column{Name: "b", Storage: dataset.StorageText, Values: vals(
			dataset.Text(" x "), dataset.Text(" x "), dataset.Text("y"), dataset.Null(),
		)},
	)
}

func countNulls(ds *dataset.Dataset) int {
	n := 0
	for _, c := range ds.Columns() {
		for _, v := range c.Values {
			if v.IsNull() {
				n++
			}
		}
	}
	return n
}

func TestCleanDuplicatesAndNulls(t *testing.T) {
	c := New(nil)
	ds := sampleDataset()

	d1, removed := c.DropDuplicates(ds)
	assert.Equal(t, 1, removed)
	assert.Less(t, d1.NumRows(), ds.NumRows())

	d2, err := c.HandleNulls(d1, StrategyFillMean)
	require.NoError(t, err)
	assert.Zero(t, countNulls(d2))

	mean, ok := d2.Column(0).Values[2].AsFloat()
	require.True(t, ok)
	assert.InDelta(t, 1.5, mean, 1e-9)

	d3, err := c.NormalizeStrings(d2)
	require.NoError(t, err)
	s, _ := d3.Column(1).Values[0].AsText()
	assert.Equal(t, "x", s)

	// input is untouched
	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, 2, countNulls(ds))
}

func TestDropDuplicatesNoop(t *testing.T) {
	ds := dataset.MustNew(dataset.Column{Name: "id", Storage: dataset.StorageInt, Values: vals(dataset.Int(1), dataset.Int(2))})
	out, removed := New(nil).DropDuplicates(ds)
	assert.Zero(t, removed)
	assert.Equal(t, 2, out.NumRows())
}

func TestDropDuplicatesNumericEquality(t *testing.T) {
	ds := dataset.MustNew(dataset.Column{Name: "n", Storage: dataset.StorageObject, Values: vals(dataset.Int(1), dataset.Float(1.0), dataset.Null(), dataset.Null())})
	out, removed := New(nil).DropDuplicates(ds)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, out.NumRows())
}

func TestHandleNullsDrop(t *testing.T) {
	out, err := New(nil).HandleNulls(sampleDataset(), StrategyDrop)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
	assert.Zero(t, countNulls(out))
}

func TestHandleNullsUnknownStrategy(t *testing.T) {
	_, err := New(nil).HandleNulls(sampleDataset(), Strategy("median"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestFillMeanIntColumns(t *testing.T) {
	c := New(nil)

	integral := dataset.MustNew(dataset.Column{Name: "n", Storage: dataset.StorageInt, Values: vals(dataset.Int(1), dataset.Int(3), dataset.Null())})
	out, err := c.HandleNulls(integral, StrategyFillMean)
	require.NoError(t, err)
	assert.Equal(t, dataset.StorageInt, out.Column(0).Storage)
	assert.Equal(t, dataset.KindInteger, out.Column(0).Values[2].Kind())
	v, _ := out.Column(0).Values[2].AsInt()
	assert.Equal(t, int64(2), v)

	fractional := dataset.MustNew(dataset.Column{Name: "n", Storage: dataset.StorageInt, Values: vals(dataset.Int(1), dataset.Int(2), dataset.Null())})
	out, err = c.HandleNulls(fractional, StrategyFillMean)
	require.NoError(t, err)
	assert.Equal(t, dataset.StorageFloat, out.Column(0).Storage)
	for _, v := range out.Column(0).Values {
		assert.Equal(t, dataset.KindFloat, v.Kind())
	}
	f, _ := out.Column(0).Values[2].AsFloat()
	assert.InDelta(t, 1.5, f, 1e-9)
}

func TestFillMeanAllNullNumericColumnIsKept(t *testing.T) {
	ds := dataset.MustNew(dataset.Column{Name: "n", Storage: dataset.StorageFloat, Values: vals(dataset.Null(), dataset.Null())})
	out, err := New(nil).HandleNulls(ds, StrategyFillMean)
	require.NoError(t, err)
	assert.Equal(t, 2, countNulls(out))
}

func TestFillModeFirstSeenTie(t *testing.T) {
	ds := dataset.MustNew(dataset.Column{Name: "s", Storage: dataset.StorageText, Values: vals(
		dataset.Text("a"), dataset.Text("b"), dataset.Text("b"), dataset.Text("a"), dataset.Null(),
	)})
	out, err := New(nil).HandleNulls(ds, StrategyFillMean)
	require.NoError(t, err)
	s, _ := out.Column(0).Values[4].AsText()
	assert.Equal(t, "a", s)
}

func TestFillModeAllNull(t *testing.T) {
	ds := dataset.MustNew(dataset.Column{Name: "s", Storage: dataset.StorageBool, Values: vals(dataset.Null())})
	out, err := New(nil).HandleNulls(ds, StrategyFillMean)
	require.NoError(t, err)
	assert.Equal(t, dataset.StorageText, out.Column(0).Storage)
	s, ok := out.Column(0).Values[0].AsText()
	assert.True(t, ok)
	assert.Empty(t, s)
}

func TestNormalizeStrings(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Column{Name: "s", Storage: dataset.StorageObject, Values: vals(
			dataset.Text("  ｆｕｌｌ "), dataset.Int(5), dataset.Null(),
		)},
		dataset.Column{Name: "n", Storage: dataset.StorageInt, Values: vals(dataset.Int(1), dataset.Int(2), dataset.Int(3))},
	)

	out, err := New(nil).NormalizeStrings(ds)
	require.NoError(t, err)

	col := out.Column(0)
	assert.Equal(t, dataset.StorageText, col.Storage)
	s, _ := col.Values[0].AsText()
	assert.Equal(t, "full", s)
	s, _ = col.Values[1].AsText()
	assert.Equal(t, "5", s)
	assert.True(t, col.Values[2].IsNull())

	assert.Equal(t, dataset.StorageInt, out.Column(1).Storage)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" Fill_Mean ")
	require.NoError(t, err)
	assert.Equal(t, StrategyFillMean, s)

	_, err = ParseStrategy("zero")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
