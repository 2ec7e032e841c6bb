// Package pipeline wires connectors, profiling, cleaning, anomaly detection
// and reporting into the runs started from the CLI, the scheduler and the
// dashboard API.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/anomaly"
	"github.com/peekknuf/dataiq/internal/cleaner"
	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/connectors"
	"github.com/peekknuf/dataiq/internal/dataset"
	"github.com/peekknuf/dataiq/internal/metrics"
	"github.com/peekknuf/dataiq/internal/profiler"
	"github.com/peekknuf/dataiq/internal/report"
	"github.com/peekknuf/dataiq/internal/storage"
)

var (
	ErrUnknownMode  = errors.New("unknown mode")
	ErrConnectivity = errors.New("database connectivity failed")
	ErrNoTables     = errors.New("no tables found in schema")
	ErrNoSource     = errors.New("no data source configured")
)

type Mode string

const (
	ModeProfile Mode = "profile"
	ModeClean   Mode = "clean"
	ModeDetect  Mode = "detect"
	ModeReport  Mode = "report"
	ModeAll     Mode = "all"
)

var Modes = []Mode{ModeProfile, ModeClean, ModeDetect, ModeReport, ModeAll}

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ExitCode maps a Run error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConnectivity):
		return 2
	case errors.Is(err, ErrNoTables):
		return 3
	case errors.Is(err, ErrUnknownMode):
		return 4
	}
	return 1
}

// ProfileOutcome is a profiled dataset with its score. PersistErr holds
// failures to save the profile or record history; the result itself is
// still valid when it is set.
type ProfileOutcome struct {
	Dataset     *dataset.Dataset    `json:"-"`
	Result      *profiler.Result    `json:"result"`
	Score       float64             `json:"score"`
	Grade       string              `json:"grade"`
	Breakdown   profiler.Breakdown  `json:"breakdown"`
	ProfilePath string              `json:"profile_path,omitempty"`
	Run         *storage.ProfileRun `json:"run,omitempty"`
	PersistErr  error               `json:"-"`
}

type CleanOutcome struct {
	Dataset           *dataset.Dataset `json:"-"`
	Path              string           `json:"path"`
	DuplicatesRemoved int              `json:"duplicates_removed"`
	Rows              int              `json:"rows"`
}

// RunOutcome collects whatever stages a mode ran.
type RunOutcome struct {
	Mode      Mode            `json:"mode"`
	Table     string          `json:"table"`
	Profile   *ProfileOutcome `json:"profile,omitempty"`
	Clean     *CleanOutcome   `json:"clean,omitempty"`
	Anomalies *anomaly.Result `json:"anomalies,omitempty"`
	Reports   *report.Paths   `json:"reports,omitempty"`
}

type Runner struct {
	source     connectors.Source
	schema     string
	profiler   *profiler.Profiler
	scorer     *profiler.Scorer
	cleaner    *cleaner.Cleaner
	detector   *anomaly.Detector
	reports    *report.Generator
	profiles   *storage.ProfileStore
	history    *storage.HistoryStore
	metrics    *metrics.Metrics
	cleanedDir string
	logger     *zap.Logger
}

// Options carries the optional collaborators of a Runner. Source may be nil
// for file-only use; History and Metrics may be nil to disable them.
type Options struct {
	Source  connectors.Source
	History *storage.HistoryStore
	Metrics *metrics.Metrics
}

func NewRunner(cfg *config.Config, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:     opts.Source,
		schema:     cfg.Database.Schema,
		profiler:   profiler.New(logger),
		scorer:     profiler.NewScorer(cfg.Scoring.Weights()),
		cleaner:    cleaner.New(logger),
		detector:   anomaly.NewDetector(cfg.Anomaly, logger),
		reports:    report.NewGenerator(cfg.Paths.ReportsDir(), logger),
		profiles:   storage.NewProfileStore(cfg.Paths.ProfilesDir(), logger),
		history:    opts.History,
		metrics:    opts.Metrics,
		cleanedDir: cfg.Paths.CleanedDir(),
		logger:     logger.Named("pipeline"),
	}
}

func (r *Runner) Source() connectors.Source { return r.source }

func (r *Runner) Profiles() *storage.ProfileStore { return r.profiles }

func (r *Runner) History() *storage.HistoryStore { return r.history }

// SetProgress installs a callback invoked after each profiled column.
func (r *Runner) SetProgress(cb profiler.ProgressCallback) { r.profiler.Progress = cb }

// Run executes one mode against table. An empty table selects the first
// table of the configured schema.
func (r *Runner) Run(ctx context.Context, mode Mode, table string, limit int) (*RunOutcome, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if r.source == nil {
		return nil, ErrNoSource
	}

	if err := r.source.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}

	table, err := r.ResolveTable(ctx, table)
	if err != nil {
		return nil, err
	}

	out := &RunOutcome{Mode: mode, Table: table}
	switch mode {
	case ModeProfile:
		out.Profile, err = r.ProfileTable(ctx, table, limit)

	case ModeClean:
		var ds *dataset.Dataset
		if ds, err = r.fetch(ctx, table, limit); err == nil {
			out.Clean, err = r.Clean(ds, table)
		}

	case ModeDetect:
		var ds *dataset.Dataset
		if ds, err = r.fetch(ctx, table, limit); err == nil {
			a := r.Detect(ds)
			out.Anomalies = &a
		}

	case ModeReport:
		if out.Profile, err = r.ProfileTable(ctx, table, limit); err == nil {
			a := r.Detect(out.Profile.Dataset)
			out.Anomalies = &a
			out.Reports, err = r.report(out.Profile, a)
		}

	case ModeAll:
		if out.Profile, err = r.ProfileTable(ctx, table, limit); err != nil {
			break
		}
		if out.Clean, err = r.Clean(out.Profile.Dataset, table); err != nil {
			break
		}
		a := r.Detect(out.Clean.Dataset)
		out.Anomalies = &a
		out.Reports, err = r.report(out.Profile, a)
	}

	if err != nil {
		r.logger.Error("Run failed", zap.String("mode", string(mode)), zap.String("table", table), zap.Error(err))
		return out, err
	}
	return out, nil
}

// ResolveTable returns table, or the first table of the schema when it is
// empty.
func (r *Runner) ResolveTable(ctx context.Context, table string) (string, error) {
	if table != "" {
		return table, nil
	}
	if r.source == nil {
		return "", ErrNoSource
	}

	tables, err := r.source.ListTables(ctx, r.schema)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return "", ErrNoTables
	}

	r.logger.Info("No table given, using first table", zap.String("table", tables[0]))
	return tables[0], nil
}

func (r *Runner) fetch(ctx context.Context, table string, limit int) (*dataset.Dataset, error) {
	if r.source == nil {
		return nil, ErrNoSource
	}
	ds, err := r.source.SampleTable(ctx, r.schema, table, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return ds, nil
}

// ProfileTable samples table and profiles it.
func (r *Runner) ProfileTable(ctx context.Context, table string, limit int) (*ProfileOutcome, error) {
	ds, err := r.fetch(ctx, table, limit)
	if err != nil {
		r.metrics.ObserveFailure()
		return nil, err
	}
	return r.ProfileDataset(ctx, ds, table)
}

// ProfileDataset profiles and scores ds, then saves the profile and records
// the run. Save failures end up in PersistErr, not in the returned error.
func (r *Runner) ProfileDataset(ctx context.Context, ds *dataset.Dataset, name string) (*ProfileOutcome, error) {
	start := time.Now()

	result, err := r.profiler.Profile(ds, name)
	if err != nil {
		r.metrics.ObserveFailure()
		return nil, err
	}

	breakdown := r.scorer.Explain(result)
	out := &ProfileOutcome{
		Dataset:   ds,
		Result:    result,
		Score:     breakdown.Score,
		Grade:     profiler.Grade(breakdown.Score),
		Breakdown: breakdown,
	}
	r.metrics.ObserveProfile(name, out.Score, time.Since(start))

	var persistErrs []error
	if out.ProfilePath, err = r.profiles.Save(result); err != nil {
		r.logger.Warn("Failed to save profile", zap.String("dataset", name), zap.Error(err))
		persistErrs = append(persistErrs, err)
	}

	if r.history != nil {
		run, err := r.history.Record(ctx, result, out.Score)
		if err != nil {
			r.logger.Warn("Failed to record profile run", zap.String("dataset", name), zap.Error(err))
			persistErrs = append(persistErrs, err)
		} else {
			out.Run = &run
		}
	}
	out.PersistErr = errors.Join(persistErrs...)

	r.logger.Info("Profile complete",
		zap.String("dataset", name),
		zap.Float64("score", out.Score),
		zap.String("grade", out.Grade))
	return out, nil
}

// Clean removes duplicates, fills nulls, normalizes strings and saves the
// result to the cleaned data directory.
func (r *Runner) Clean(ds *dataset.Dataset, name string) (*CleanOutcome, error) {
	deduped, removed := r.cleaner.DropDuplicates(ds)

	filled, err := r.cleaner.HandleNulls(deduped, cleaner.StrategyFillMean)
	if err != nil {
		return nil, err
	}

	normalized, err := r.cleaner.NormalizeStrings(filled)
	if err != nil {
		return nil, err
	}

	path, err := storage.SaveCleaned(r.cleanedDir, normalized, name)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Saved cleaned dataset", zap.String("path", path))
	return &CleanOutcome{
		Dataset:           normalized,
		Path:              path,
		DuplicatesRemoved: removed,
		Rows:              normalized.NumRows(),
	}, nil
}

func (r *Runner) Detect(ds *dataset.Dataset) anomaly.Result {
	return r.detector.Detect(ds)
}

// Report writes the HTML and Excel reports of a profile.
func (r *Runner) Report(p *ProfileOutcome, anomalies anomaly.Result) (report.Paths, error) {
	return r.reports.Generate(p.Result, p.Score, anomalies)
}

func (r *Runner) report(p *ProfileOutcome, anomalies anomaly.Result) (*report.Paths, error) {
	paths, err := r.Report(p, anomalies)
	if err != nil {
		return nil, err
	}
	return &paths, nil
}
