package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/peekknuf/dataiq/internal/profiler"
)

var (
	good  = lipgloss.Color("#00CC66")
	fair  = lipgloss.Color("#FFAA00")
	poor  = lipgloss.Color("#FF0000")
	muted = lipgloss.Color("#666666")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)
)

func gradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "Good":
		return lipgloss.NewStyle().Foreground(good).Bold(true)
	case "Fair":
		return lipgloss.NewStyle().Foreground(fair).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(poor).Bold(true)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func statCell(s profiler.Stat) string {
	if !s.Valid {
		return "-"
	}
	return fmt.Sprintf("%.4g", s.Value)
}

// RenderTerminal prints the profile of one dataset with its score.
func RenderTerminal(w io.Writer, r *profiler.Result, score float64) error {
	var out strings.Builder
	grade := profiler.Grade(score)

	out.WriteString(titleStyle.Render("=== DATA QUALITY SUMMARY ===") + "\n")
	out.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	out.WriteString(fmt.Sprintf("Health score: %s %s\n",
		gradeStyle(grade).Render(fmt.Sprintf("%.2f", score)), grade))
	out.WriteString(fmt.Sprintf("Rows: %s | Columns: %d | Duplicates: %s | Total Nulls: %s | Type mismatches: %s\n",
		humanize.Comma(int64(r.Overall.Rows)), r.Overall.Columns,
		humanize.Comma(int64(r.Overall.DuplicateRows)),
		humanize.Comma(int64(r.Overall.TotalNulls)),
		humanize.Comma(int64(r.TotalMismatches()))))
	out.WriteString("\n")

	out.WriteString(titleStyle.Render("=== PER-COLUMN ANALYSIS ===") + "\n")
	out.WriteString(fmt.Sprintf("%-28s %-10s %-9s %8s %8s %10s %10s %10s %10s %10s\n",
		"Column", "Dtype", "Inferred", "Nulls", "Unique", "Mismatch", "Mean", "Median", "Min", "Max"))
	out.WriteString(strings.Repeat("-", 122) + "\n")

	for _, c := range r.Columns {
		out.WriteString(fmt.Sprintf("%-28s %-10s %-9s %8d %8d %10d %10s %10s %10s %10s\n",
			truncate(c.Name, 28), c.StorageType, c.InferredType,
			c.NullCount, c.UniqueCount, c.TypeMismatchCount,
			statCell(c.Mean), statCell(c.Median), statCell(c.Min), statCell(c.Max)))
	}

	_, err := io.WriteString(w, out.String())
	return err
}

// ScanEntry is one file of a multi-file scan.
type ScanEntry struct {
	Path     string
	Result   *profiler.Result
	Score    float64
	Size     int64
	Duration time.Duration
	Err      error
}

// RenderScan prints the per-file table of a scan, followed by the files
// that failed.
func RenderScan(w io.Writer, entries []ScanEntry, total time.Duration) error {
	var out strings.Builder

	var rows, cols, failed int
	var bytes int64
	for _, e := range entries {
		if e.Err != nil {
			failed++
			continue
		}
		rows += e.Result.Overall.Rows
		cols += e.Result.Overall.Columns
		bytes += e.Size
	}

	out.WriteString(titleStyle.Render("=== DATA QUALITY SUMMARY ===") + "\n")
	out.WriteString(fmt.Sprintf("Total files processed: %d (%d failed)\n", len(entries), failed))
	out.WriteString(fmt.Sprintf("Total size: %s\n", humanize.Bytes(uint64(bytes))))
	out.WriteString(fmt.Sprintf("Total processing time: %v\n", total.Round(time.Millisecond)))
	out.WriteString(fmt.Sprintf("Total rows processed: %s\n", humanize.Comma(int64(rows))))
	out.WriteString(fmt.Sprintf("Total columns analyzed: %d\n", cols))
	out.WriteString("\n")

	out.WriteString(titleStyle.Render("=== PER-FILE ANALYSIS ===") + "\n")
	out.WriteString(fmt.Sprintf("%-40s %10s %8s %10s %12s %8s %8s\n",
		"File", "Rows", "Columns", "Nulls", "Process Time", "Score", "Quality"))
	out.WriteString(strings.Repeat("-", 102) + "\n")

	for _, e := range entries {
		if e.Err != nil {
			continue
		}
		grade := profiler.Grade(e.Score)
		out.WriteString(fmt.Sprintf("%-40s %10d %8d %10d %12s %8.2f %8s\n",
			truncate(baseName(e.Path), 40), e.Result.Overall.Rows, e.Result.Overall.Columns,
			e.Result.Overall.TotalNulls, e.Duration.Round(time.Millisecond), e.Score,
			gradeStyle(grade).Render(grade)))
	}

	if failed > 0 {
		out.WriteString("\n" + titleStyle.Render("=== FAILED FILES ===") + "\n")
		for _, e := range entries {
			if e.Err != nil {
				out.WriteString(mutedStyle.Render(fmt.Sprintf("%s: %v", e.Path, e.Err)) + "\n")
			}
		}
	}

	_, err := io.WriteString(w, out.String())
	return err
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
