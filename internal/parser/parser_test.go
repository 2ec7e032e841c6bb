package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/peekknuf/dataiq/internal/dataset"
)

func createTestCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		data string
		want rune
	}{
		{"a,b,c\n1,2,3\n", ','},
		{"a;b;c\n1;2;3\n", ';'},
		{"a\tb\tc\n1\t2\t3\n", '\t'},
		{"a|b\n1|2\n", '|'},
		{`"x,y";b` + "\n" + `"1,2";3` + "\n", ';'},
		{"single\n1\n", ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data), 0), tt.data)
	}
}

func TestLoadInfersStorageTypes(t *testing.T) {
	path := createTestCSV(t, "mixed.csv", `id,price,active,name,code,empty,when
1,2.5,true,alice,001,,2024-01-01
2,3,False,bob,abc,NA,2024-01-02
,4.25,TRUE,NULL,7,,2024-01-03
`)

	ds, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 3, ds.NumRows())

	want := map[string]dataset.StorageType{
		"id":     dataset.StorageInt,
		"price":  dataset.StorageFloat,
		"active": dataset.StorageBool,
		"name":   dataset.StorageText,
		"code":   dataset.StorageText,
		"empty":  dataset.StorageFloat,
		"when":   dataset.StorageText,
	}
	for name, st := range want {
		col, ok := ds.ColumnByName(name)
		require.True(t, ok, name)
		assert.Equal(t, st, col.Storage, name)
	}

	id, _ := ds.ColumnByName("id")
	assert.True(t, id.Values[2].IsNull())

	name, _ := ds.ColumnByName("name")
	assert.True(t, name.Values[2].IsNull())

	code, _ := ds.ColumnByName("code")
	s, ok := code.Values[0].AsText()
	require.True(t, ok)
	assert.Equal(t, "001", s)

	price, _ := ds.ColumnByName("price")
	f, ok := price.Values[1].AsFloat()
	require.True(t, ok)
	assert.Equal(t, dataset.KindFloat, price.Values[1].Kind())
	assert.Equal(t, 3.0, f)
}

func TestLoadParseDates(t *testing.T) {
	path := createTestCSV(t, "dates.csv", "when\n2024-01-01\n2024-02-01 10:00:00\n")

	opts := DefaultOptions()
	opts.ParseDates = true
	ds, err := Load(path, opts)
	require.NoError(t, err)
	assert.Equal(t, dataset.StorageTemporal, ds.Column(0).Storage)
	assert.Equal(t, dataset.KindTemporal, ds.Column(0).Values[1].Kind())
}

func TestLoadPadsShortRowsAndRejectsLongRows(t *testing.T) {
	path := createTestCSV(t, "short.csv", "a,b,c\n1,2\n3,4,5\n")
	ds, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, ds.Column(2).Values[0].IsNull())

	path = createTestCSV(t, "long.csv", "a,b\n1,2,3\n")
	_, err = Load(path, DefaultOptions())
	assert.ErrorIs(t, err, ErrRaggedRow)
}

func TestLoadSemicolonAndHeaderNames(t *testing.T) {
	path := createTestCSV(t, "semi.csv", "a;a;;b\n1;2;3;4\n")
	ds, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "b"}, ds.Names())
}

func TestLoadHeaderOnly(t *testing.T) {
	path := createTestCSV(t, "header.csv", "a,b\n")
	ds, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, 2, ds.NumColumns())
	assert.Equal(t, dataset.StorageObject, ds.Column(0).Storage)
}

func TestLoadSamplesMaxRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < 500; i++ {
		sb.WriteString(strings.Repeat("1", 1+i%3))
		sb.WriteString("\n")
	}

	opts := DefaultOptions()
	opts.MaxRows = 100
	ds1, err := LoadReader("big.csv", strings.NewReader(sb.String()), opts)
	require.NoError(t, err)
	ds2, err := LoadReader("big.csv", strings.NewReader(sb.String()), opts)
	require.NoError(t, err)

	assert.Equal(t, 100, ds1.NumRows())
	assert.Equal(t, ds1.Column(0).Values, ds2.Column(0).Values)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"id", "city"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, "Oslo"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{2}))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "city"}, ds.Names())
	assert.Equal(t, dataset.StorageInt, ds.Column(0).Storage)
	assert.Equal(t, dataset.StorageText, ds.Column(1).Storage)
	assert.True(t, ds.Column(1).Values[1].IsNull())
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := LoadReader("photo.png", strings.NewReader("x"), DefaultOptions())
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Column{Name: "a", Storage: dataset.StorageFloat, Values: []dataset.Value{dataset.Float(1.5), dataset.Null()}},
		dataset.Column{Name: "b", Storage: dataset.StorageText, Values: []dataset.Value{dataset.Text("x,y"), dataset.Text("z")}},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.Equal(t, "a,b\n1.5,\"x,y\"\n,z\n", buf.String())

	back, err := LoadReader("back.csv", &buf, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ds.Names(), back.Names())
	assert.True(t, back.Column(0).Values[1].IsNull())
}
