package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/connectors"
	"github.com/peekknuf/dataiq/internal/parser"
	"github.com/peekknuf/dataiq/internal/report"
)

var (
	describeMaxRows    int
	describeSheet      string
	describeParseDates bool
	describeReport     bool
	outputFile         string
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Profile and score a single data file",
	Long: `Profile a CSV, TSV or Excel file and print its health score
with per-column statistics.

Examples:
  dataiq describe file.csv
  dataiq describe sales.xlsx --sheet Q3
  dataiq describe big.csv.gz --max-rows 10000
  dataiq describe file.csv --report                 # also write HTML and XLSX
  dataiq describe file.csv --output results.txt      # Save output`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := describeFile(cmd.Context(), args[0]); err != nil {
			log.Fatalf("Failed to describe %s: %v", args[0], err)
		}
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().IntVar(&describeMaxRows, "max-rows", 0,
		"Sample at most this many rows (default: all)")
	describeCmd.Flags().StringVar(&describeSheet, "sheet", "",
		"Excel sheet to read (default: first sheet)")
	describeCmd.Flags().BoolVar(&describeParseDates, "parse-dates", false,
		"Treat all-date text columns as datetime64")
	describeCmd.Flags().BoolVar(&describeReport, "report", false,
		"Write HTML and XLSX reports with anomaly counts")
	describeCmd.Flags().StringVar(&outputFile, "output", "",
		"Output file to save results (default: stdout)")
}

func describeFile(ctx context.Context, path string) error {
	a, err := bootstrap(ctx, bootOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := parser.DefaultOptions()
	opts.MaxRows = describeMaxRows
	opts.Sheet = describeSheet
	opts.ParseDates = describeParseDates

	ds, err := parser.Load(path, opts)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(ds.NumColumns(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][reset] Describing %s...", filepath.Base(path))),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
	)
	a.runner.SetProgress(func(done, total int, _ string) { _ = bar.Set(done) })

	name := connectors.FileMeta{Path: path}.Name()
	out, err := a.runner.ProfileDataset(ctx, ds, name)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	if out.PersistErr != nil {
		a.logger.Warn("Profile not persisted", zap.Error(out.PersistErr))
	}

	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outputFile, err)
		}
		defer f.Close()
		w = f
	}

	if err := report.RenderTerminal(w, out.Result, out.Score); err != nil {
		return err
	}
	if out.ProfilePath != "" {
		fmt.Fprintf(w, "\nProfile saved to %s\n", out.ProfilePath)
	}

	if describeReport {
		paths, err := a.runner.Report(out, a.runner.Detect(ds))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Reports: %s, %s\n", paths.HTML, paths.XLSX)
	}

	if outputFile != "" {
		fmt.Printf("Results saved to %s\n", outputFile)
	}
	return nil
}
