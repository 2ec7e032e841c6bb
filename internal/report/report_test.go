package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/peekknuf/dataiq/internal/anomaly"
	"github.com/peekknuf/dataiq/internal/profiler"
)

func testResult() *profiler.Result {
	return &profiler.Result{
		Name: "orders",
		Columns: []profiler.ColumnProfile{
			{
				Name: "amount", StorageType: "float64", InferredType: profiler.TypeFloat,
				NullCount: 1, UniqueCount: 3, Mean: profiler.Some(2), Median: profiler.Some(2),
				Std: profiler.Some(1), Min: profiler.Some(1), Max: profiler.Some(3), TotalRows: 4,
			},
			{
				Name: "note", StorageType: "string", InferredType: profiler.TypeString,
				UniqueCount: 4, TotalRows: 4,
			},
		},
		Overall: profiler.Overall{Rows: 4, Columns: 2, TotalNulls: 1},
	}
}

func fixedGenerator(dir string) *Generator {
	g := NewGenerator(dir, nil)
	g.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return g
}

func TestGenerateWritesHTMLAndXLSX(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	anomalies := anomaly.Result{PerColumn: []anomaly.ColumnOutliers{{Column: "amount", Outliers: 2, Checked: 3}}}

	paths, err := fixedGenerator(dir).Generate(testResult(), 93.75, anomalies)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dataiq_report_20240506_070809.html"), paths.HTML)
	assert.Equal(t, filepath.Join(dir, "dataiq_report_20240506_070809.xlsx"), paths.XLSX)

	html, err := os.ReadFile(paths.HTML)
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Health Score: <span class=\"Good\">93.75 (Good)</span>")
	assert.Contains(t, page, "<td>amount</td>")
	assert.Contains(t, page, "<li>amount: 2</li>")
	assert.Contains(t, page, "Null ratio: 12.5%")

	f, err := excelize.OpenFile(paths.XLSX)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, columnsSheet, anomaliesSheet}, f.GetSheetList())

	rows, err := f.GetRows(columnsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "column", rows[0][0])
	assert.Equal(t, "amount", rows[1][0])
	assert.Equal(t, "note", rows[2][0])

	score, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "93.75", score)

	mean, err := f.GetCellValue(columnsSheet, "H3")
	require.NoError(t, err)
	assert.Empty(t, mean)
}

func TestGenerateCapsHTMLColumns(t *testing.T) {
	r := &profiler.Result{Name: "wide"}
	for i := 0; i < 60; i++ {
		r.Columns = append(r.Columns, profiler.ColumnProfile{Name: fmt.Sprintf("col_%02d", i), StorageType: "string", InferredType: profiler.TypeString})
	}
	r.Overall.Columns = 60

	paths, err := fixedGenerator(t.TempDir()).Generate(r, 100, anomaly.Result{})
	require.NoError(t, err)

	html, err := os.ReadFile(paths.HTML)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<td>col_49</td>")
	assert.NotContains(t, string(html), "<td>col_50</td>")
	assert.Contains(t, string(html), "No numeric columns checked.")
}

func TestGenerateEscapesNames(t *testing.T) {
	r := testResult()
	r.Columns[0].Name = "<script>"

	paths, err := fixedGenerator(t.TempDir()).Generate(r, 50, anomaly.Result{})
	require.NoError(t, err)

	html, err := os.ReadFile(paths.HTML)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<td><script></td>")
	assert.Contains(t, string(html), "&lt;script&gt;")
}

func TestRenderTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, testResult(), 80))

	out := buf.String()
	assert.Contains(t, out, "Dataset: orders")
	assert.Contains(t, out, "Fair")
	assert.Contains(t, out, "amount")
	assert.Contains(t, out, "float64")

	noteLine := ""
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "note") {
			noteLine = l
		}
	}
	require.NotEmpty(t, noteLine)
	assert.Contains(t, noteLine, "-")
}

func TestRenderScan(t *testing.T) {
	entries := []ScanEntry{
		{Path: "/data/a.csv", Result: testResult(), Score: 95, Size: 2048, Duration: time.Second},
		{Path: "/data/b.csv", Err: errors.New("ragged row")},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderScan(&buf, entries, 2*time.Second))

	out := buf.String()
	assert.Contains(t, out, "Total files processed: 2 (1 failed)")
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "/data/b.csv: ragged row")
	assert.Contains(t, out, "2.0 kB")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
