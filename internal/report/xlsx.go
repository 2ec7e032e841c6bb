package report

import (
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/peekknuf/dataiq/internal/profiler"
)

const (
	summarySheet   = "Summary"
	columnsSheet   = "Columns"
	anomaliesSheet = "Anomalies"
)

func statCellValue(s profiler.Stat) any {
	if !s.Valid {
		return nil
	}
	if math.IsInf(s.Value, 0) || math.IsNaN(s.Value) {
		return s.String()
	}
	return s.Value
}

func writeXLSX(path string, v view) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	for _, name := range []string{columnsSheet, anomaliesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]any{
		{"Dataset", v.Result.Name},
		{"Generated", v.Generated.Format("2006-01-02 15:04:05")},
		{"Health score", v.Score},
		{"Grade", v.Grade},
		{"Rows", v.Result.Overall.Rows},
		{"Columns", v.Result.Overall.Columns},
		{"Duplicate rows", v.Result.Overall.DuplicateRows},
		{"Total nulls", v.Result.Overall.TotalNulls},
		{"Type mismatches", v.Result.TotalMismatches()},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err := f.SetColStyle(summarySheet, "A", bold); err != nil {
		return err
	}

	columns := [][]any{{
		"column", "dtype", "inferred_type", "null_count", "duplicate_rows",
		"type_mismatch_count", "unique_count", "mean", "median", "std",
		"min", "max", "total_rows",
	}}
	for _, c := range v.Result.Columns {
		columns = append(columns, []any{
			c.Name, c.StorageType, string(c.InferredType), c.NullCount, c.DuplicateRows,
			c.TypeMismatchCount, c.UniqueCount, statCellValue(c.Mean), statCellValue(c.Median),
			statCellValue(c.Std), statCellValue(c.Min), statCellValue(c.Max), c.TotalRows,
		})
	}
	if err := writeRows(f, columnsSheet, columns); err != nil {
		return err
	}

	anomalies := [][]any{{"column", "outliers", "checked"}}
	for _, a := range v.Anomalies.PerColumn {
		anomalies = append(anomalies, []any{a.Column, a.Outliers, a.Checked})
	}
	if err := writeRows(f, anomaliesSheet, anomalies); err != nil {
		return err
	}

	for _, sheet := range []string{columnsSheet, anomaliesSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
