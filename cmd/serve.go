package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/metrics"
	"github.com/peekknuf/dataiq/internal/server"
)

var (
	serveNoDB     bool
	serveSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Serve the JSON API behind the dashboard: table profiling,
file uploads, saved profiles, run history and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}

		a, err := bootstrap(ctx, bootOptions{source: !serveNoDB, metrics: m})
		if err != nil {
			return err
		}
		defer a.Close()

		if serveSchedule {
			s, err := newScheduler(a)
			if err != nil {
				return err
			}
			s.Start()
			defer s.Stop()
		}

		srv := server.New(a.cfg, a.runner, reg, a.logger)
		if err := srv.ListenAndServe(ctx); err != nil {
			a.logger.Error("Server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoDB, "no-db", false,
		"Serve uploads and saved profiles only, without a database")
	serveCmd.Flags().BoolVar(&serveSchedule, "with-schedule", false,
		"Also run the scheduled jobs in this process")
}
