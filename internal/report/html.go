package report

import (
	"fmt"
	"html/template"
	"os"

	"github.com/peekknuf/dataiq/internal/profiler"
)

var funcs = template.FuncMap{
	"stat": func(s profiler.Stat) string {
		if !s.Valid {
			return ""
		}
		return fmt.Sprintf("%.6g", s.Value)
	},
	"pct": func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
	"head": func(cols []profiler.ColumnProfile) []profiler.ColumnProfile {
		if len(cols) > htmlColumnLimit {
			return cols[:htmlColumnLimit]
		}
		return cols
	},
}

var htmlTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 20px; }
      h1 { color: #222; }
      .score { font-size: 1.2em; margin-bottom: 10px; }
      .Good { color: #00875a; } .Fair { color: #b36b00; } .Poor { color: #c00; }
      table { border-collapse: collapse; width: 100%; margin-top: 10px; }
      th, td { border: 1px solid #ccc; padding: 6px 8px; font-size: 12px; }
      th { background: #f5f5f5; }
    </style>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <div>Dataset: {{.Result.Name}} | Generated: {{.Generated.Format "2006-01-02 15:04:05"}}</div>
    <div class="score">Health Score: <span class="{{.Grade}}">{{printf "%.2f" .Score}} ({{.Grade}})</span></div>
    <div>Rows: {{.Result.Overall.Rows}} | Columns: {{.Result.Overall.Columns}} | Duplicates: {{.Result.Overall.DuplicateRows}} | Total Nulls: {{.Result.Overall.TotalNulls}}</div>
    <div>Null ratio: {{pct .Breakdown.NullRatio}} | Duplicate ratio: {{pct .Breakdown.DuplicateRatio}} | Mismatch ratio: {{pct .Breakdown.MismatchRatio}}</div>
    <h2>Per-column summary (first 50 columns)</h2>
    <table>
      <tr>
        <th>column</th><th>dtype</th><th>inferred_type</th><th>null_count</th><th>duplicate_rows</th>
        <th>type_mismatch_count</th><th>unique_count</th><th>mean</th><th>median</th><th>std</th>
        <th>min</th><th>max</th><th>total_rows</th>
      </tr>
      {{- range head .Result.Columns}}
      <tr>
        <td>{{.Name}}</td><td>{{.StorageType}}</td><td>{{.InferredType}}</td><td>{{.NullCount}}</td><td>{{.DuplicateRows}}</td>
        <td>{{.TypeMismatchCount}}</td><td>{{.UniqueCount}}</td><td>{{stat .Mean}}</td><td>{{stat .Median}}</td><td>{{stat .Std}}</td>
        <td>{{stat .Min}}</td><td>{{stat .Max}}</td><td>{{.TotalRows}}</td>
      </tr>
      {{- end}}
    </table>
    <h2>Anomalies</h2>
    {{- if .Anomalies.PerColumn}}
    <ul>
      {{- range .Anomalies.PerColumn}}
      <li>{{.Column}}: {{.Outliers}}</li>
      {{- end}}
    </ul>
    {{- else}}
    <p>No numeric columns checked.</p>
    {{- end}}
  </body>
</html>
`))

func writeHTML(path string, v view) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := htmlTemplate.Execute(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
