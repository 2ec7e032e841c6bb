package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/report"
)

var (
	runMode  string
	runTable string
	runLimit int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline against a database table",
	Long: `Fetch a sample of a table and profile, clean, inspect or report on it.

Examples:
  dataiq run --mode profile --table orders
  dataiq run --mode all --limit 5000          # first table of the schema`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(pipeline.ExitCode(runPipeline(cmd.Context())))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runMode, "mode", "m", string(pipeline.ModeAll),
		fmt.Sprintf("Pipeline mode %v", pipeline.Modes))
	runCmd.Flags().StringVarP(&runTable, "table", "t", "",
		"Table to process (default: first table of the schema)")
	runCmd.Flags().IntVarP(&runLimit, "limit", "l", 0,
		"Rows to sample (default: fetch.sample_rows)")
}

func runPipeline(parent context.Context) error {
	mode, err := pipeline.ParseMode(runMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, bootOptions{source: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer a.Close()

	a.logger.Info("Starting run", zap.String("mode", string(mode)), zap.String("table", runTable))
	out, err := a.runner.Run(ctx, mode, runTable, runLimit)
	if err != nil {
		return err
	}

	if out.Profile != nil {
		if err := report.RenderTerminal(os.Stdout, out.Profile.Result, out.Profile.Score); err != nil {
			return err
		}
		if out.Profile.PersistErr != nil {
			a.logger.Warn("Profile not persisted", zap.Error(out.Profile.PersistErr))
		}
	}
	if out.Clean != nil {
		fmt.Printf("Cleaned data: %s (%d rows, %d duplicates removed)\n",
			out.Clean.Path, out.Clean.Rows, out.Clean.DuplicatesRemoved)
	}
	if out.Anomalies != nil {
		for _, c := range out.Anomalies.PerColumn {
			fmt.Printf("Outliers in %s: %d of %d\n", c.Column, c.Outliers, c.Checked)
		}
	}
	if out.Reports != nil {
		fmt.Printf("Reports: %s, %s\n", out.Reports.HTML, out.Reports.XLSX)
	}

	a.logger.Info("Run complete", zap.String("mode", string(mode)), zap.String("table", out.Table))
	return nil
}
