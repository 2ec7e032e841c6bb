package connectors

import (
	"context"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/dataset"
)

func TestStorageForTypeName(t *testing.T) {
	tests := map[string]dataset.StorageType{
		"int4":             dataset.StorageInt,
		"BIGINT":           dataset.StorageInt,
		"numeric":          dataset.StorageFloat,
		"DECIMAL(10,2)":    dataset.StorageFloat,
		"float8":           dataset.StorageFloat,
		"bool":             dataset.StorageBool,
		"BIT":              dataset.StorageBool,
		"timestamptz":      dataset.StorageTemporal,
		"DATETIME2":        dataset.StorageTemporal,
		"varchar":          dataset.StorageText,
		"NVARCHAR":         dataset.StorageText,
		"uuid":             dataset.StorageText,
		"jsonb":            dataset.StorageObject,
		"":                 dataset.StorageObject,
		"UNIQUEIDENTIFIER": dataset.StorageText,
	}
	for name, want := range tests {
		assert.Equal(t, want, StorageForTypeName(name), name)
	}
}

func TestValueFromDriver(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		in   any
		st   dataset.StorageType
		want dataset.Value
	}{
		{"nil", nil, dataset.StorageInt, dataset.Null()},
		{"int32", int32(7), dataset.StorageInt, dataset.Int(7)},
		{"int from float", float64(3), dataset.StorageInt, dataset.Int(3)},
		{"fractional int", 3.5, dataset.StorageInt, dataset.Text("3.5")},
		{"float", float32(1.5), dataset.StorageFloat, dataset.Float(1.5)},
		{"nan float", math.NaN(), dataset.StorageFloat, dataset.Null()},
		{"decimal bytes", []byte("12.25"), dataset.StorageFloat, dataset.Float(12.25)},
		{"numeric", pgtype.Numeric{Int: big.NewInt(1225), Exp: -2, Valid: true}, dataset.StorageFloat, dataset.Float(12.25)},
		{"null numeric", pgtype.Numeric{}, dataset.StorageFloat, dataset.Null()},
		{"bool", true, dataset.StorageBool, dataset.Bool(true)},
		{"time", ts, dataset.StorageTemporal, dataset.Time(ts)},
		{"time text", "2024-03-01", dataset.StorageTemporal, dataset.Time(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
		{"bad time", "soon", dataset.StorageTemporal, dataset.Text("soon")},
		{"text", "abc", dataset.StorageText, dataset.Text("abc")},
		{"uuid", [16]byte(id), dataset.StorageText, dataset.Text(id.String())},
		{"object", map[string]any{"a": 1}, dataset.StorageObject, dataset.Text("map[a:1]")},
		{"bad int", "x", dataset.StorageInt, dataset.Text("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValueFromDriver(tt.in, tt.st)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.Equal(t, tt.want.Key(), got.Key())
		})
	}
}

func TestDatasetFromRows(t *testing.T) {
	ds, err := datasetFromRows(
		[]string{"id", "name"},
		[]string{"int8", "text"},
		[][]any{{int64(1), "a"}, {nil, "b"}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, dataset.StorageInt, ds.Column(0).Storage)
	assert.True(t, ds.Column(0).Values[1].IsNull())
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"public"."my ""table"""`, qualifiedTableName("public", `my "table"`))
	assert.Equal(t, `"t"`, qualifiedTableName("", "t"))
	assert.Equal(t, "[dbo].[we]]ird]", qualifiedSQLServerName("dbo", "we]ird"))
}

func TestResolveLimit(t *testing.T) {
	assert.Equal(t, 10, resolveLimit(10, 500))
	assert.Equal(t, 500, resolveLimit(0, 500))
	assert.Equal(t, DefaultSampleRows, resolveLimit(-1, 0))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}
	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestDiscoverFiles(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.csv":            "x\n1\n",
		"b.CSV":            "x\n2\n",
		"c.csv.gz":         "",
		"notes.md":         "hi",
		"sub/d.csv":        "x\n3\n",
		".hidden/e.csv":    "x\n4\n",
		"sub/.secret.csv":  "x\n5\n",
		"sheets/book.xlsx": "",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	flat, err := DiscoverFiles(root, "csv", DiscoveryOptions{})
	require.NoError(t, err)
	assert.Len(t, flat, 3)

	deep, err := DiscoverFiles(root, ".csv", DiscoveryOptions{Recursive: true})
	require.NoError(t, err)
	assert.Len(t, deep, 4)

	sized, err := DiscoverFiles(root, "csv", DiscoveryOptions{Recursive: true, MinSize: 1})
	require.NoError(t, err)
	assert.Len(t, sized, 3)

	xlsx, err := DiscoverFiles(root, "xlsx", DiscoveryOptions{Recursive: true})
	require.NoError(t, err)
	require.Len(t, xlsx, 1)
	assert.Equal(t, "book", xlsx[0].Name())

	_, err = DiscoverFiles(root, "tsv", DiscoveryOptions{})
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = DiscoverFiles(filepath.Join(root, "missing"), "csv", DiscoveryOptions{})
	assert.Error(t, err)
}

func TestFileMetaName(t *testing.T) {
	assert.Equal(t, "sales", FileMeta{Path: "/data/sales.csv.gz"}.Name())
	assert.Equal(t, "README", FileMeta{Path: "README"}.Name())
}
