// Package report renders profiling results as HTML and Excel reports and
// as terminal tables.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/anomaly"
	"github.com/peekknuf/dataiq/internal/profiler"
)

const (
	filePrefix = "dataiq_report"
	// htmlColumnLimit caps the per-column table of the HTML report.
	htmlColumnLimit = 50
)

// Paths lists the files written by one Generate call.
type Paths struct {
	HTML string `json:"html"`
	XLSX string `json:"xlsx"`
}

type Generator struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(dir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{dir: dir, logger: logger.Named("report"), now: time.Now}
}

// view is the data shared by the HTML and Excel renderers.
type view struct {
	Title     string
	Generated time.Time
	Result    *profiler.Result
	Score     float64
	Grade     string
	Breakdown profiler.Breakdown
	Anomalies anomaly.Result
}

// Generate writes dataiq_report_<timestamp>.html and .xlsx into the report
// directory.
func (g *Generator) Generate(r *profiler.Result, score float64, anomalies anomaly.Result) (Paths, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create reports dir: %w", err)
	}

	now := g.now()
	base := filepath.Join(g.dir, fmt.Sprintf("%s_%s", filePrefix, now.Format("20060102_150405")))

	v := view{
		Title:     "DataIQ Data Quality Report",
		Generated: now,
		Result:    r,
		Score:     score,
		Grade:     profiler.Grade(score),
		Breakdown: profiler.NewScorer(profiler.DefaultWeights()).Explain(r),
		Anomalies: anomalies,
	}

	paths := Paths{HTML: base + ".html", XLSX: base + ".xlsx"}

	if err := writeHTML(paths.HTML, v); err != nil {
		g.logger.Error("Failed to generate HTML report", zap.Error(err))
		return Paths{}, fmt.Errorf("html report: %w", err)
	}
	if err := writeXLSX(paths.XLSX, v); err != nil {
		g.logger.Error("Failed to generate Excel report", zap.Error(err))
		return Paths{}, fmt.Errorf("xlsx report: %w", err)
	}

	g.logger.Info("Reports generated", zap.String("html", paths.HTML), zap.String("xlsx", paths.XLSX))
	return paths, nil
}
