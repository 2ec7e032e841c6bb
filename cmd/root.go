package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/connectors"
	"github.com/peekknuf/dataiq/internal/logging"
	"github.com/peekknuf/dataiq/internal/metrics"
	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dataiq",
	Short: "Data profiling and health scoring",
	Long: `Profile tables and data files, score their health
and clean, inspect or report on them`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath,
		"config file")
}

// app holds everything a command needs after bootstrap.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	runner  *pipeline.Runner
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

type bootOptions struct {
	source  bool
	metrics *metrics.Metrics
}

// bootstrap loads config, creates the output folders and the logger, and
// builds a runner. A data source is only opened when opts.source is set.
func bootstrap(ctx context.Context, opts bootOptions) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create output folders: %w", err)
	}

	logger, err := logging.New(cfg.Log, cfg.Paths.LogsDir)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	popts := pipeline.Options{Metrics: opts.metrics}

	if opts.source {
		src, err := connectors.Open(ctx, cfg, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%w: %w", pipeline.ErrConnectivity, err)
		}
		popts.Source = src
		a.closers = append(a.closers, src.Close)
	}

	if !cfg.History.Disabled {
		h, err := storage.OpenHistory(cfg.History.DSN, logger)
		if err != nil {
			logger.Warn("Profile history unavailable", zap.Error(err))
		} else {
			popts.History = h
			a.closers = append(a.closers, h.Close)
		}
	}

	a.runner = pipeline.NewRunner(cfg, popts, logger)
	return a, nil
}
