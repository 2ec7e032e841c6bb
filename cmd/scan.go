package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peekknuf/dataiq/internal/connectors"
	"github.com/peekknuf/dataiq/internal/parser"
	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/report"
)

var (
	filename      string
	dirPath       string
	fileFormat    string
	recursive     bool
	verbose       bool
	minSize       int64
	maxSize       int64
	scanWorkers   int
	scanMaxRows   int
	modifiedAfter string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan directory for data files",
	Long: `Scan a directory and profile every data file
in parallel, scoring each one`,
	Run: func(cmd *cobra.Command, args []string) {
		if dirPath == "" {
			log.Printf("You must specify a directory with --dir")
			return
		}
		if err := scanDirectory(cmd.Context()); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&filename, "file", "n", "",
		"You might want to check specific file only")
	scanCmd.Flags().StringVarP(&dirPath, "dir", "d", "",
		"Directory to scan (required)")
	scanCmd.Flags().StringVarP(&fileFormat, "format", "f", "csv",
		"File format to analyze (csv, tsv, xlsx)")
	scanCmd.Flags().BoolVarP(&recursive, "recursive", "r", false,
		"Search directories recursively")
	scanCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Display the per-column profile of every file")
	scanCmd.Flags().Int64Var(&minSize, "min-size", 0,
		"Minimum file size in bytes")
	scanCmd.Flags().Int64Var(&maxSize, "max-size", 0,
		"Maximum file size in bytes")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0,
		"Number of parallel workers (default: CPU cores)")
	scanCmd.Flags().IntVar(&scanMaxRows, "max-rows", 0,
		"Sample at most this many rows per file (default: all)")
	scanCmd.Flags().StringVar(&modifiedAfter, "modified-after", "",
		"Only files modified after this date (YYYY-MM-DD)")

	scanCmd.MarkFlagRequired("dir")
}

func scanDirectory(ctx context.Context) error {
	a, err := bootstrap(ctx, bootOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := scanTargets()
	if err != nil {
		if errors.Is(err, connectors.ErrNoFiles) {
			fmt.Printf("No %s files found in %s\n", fileFormat, dirPath)
			return nil
		}
		return err
	}
	a.logger.Info("Discovered files", zap.Int("count", len(files)), zap.String("dir", dirPath))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan][reset] Processing files..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	start := time.Now()
	entries, outcomes := profileFiles(ctx, a.runner, files, bar)
	_ = bar.Finish()

	if verbose {
		for _, out := range outcomes {
			if out == nil {
				continue
			}
			if err := report.RenderTerminal(os.Stdout, out.Result, out.Score); err != nil {
				return err
			}
			fmt.Println()
		}
	}

	return report.RenderScan(os.Stdout, entries, time.Since(start))
}

func scanTargets() ([]connectors.FileMeta, error) {
	if filename != "" {
		path := filepath.Join(dirPath, filename)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return []connectors.FileMeta{{Path: path, Size: info.Size(), Modified: info.ModTime()}}, nil
	}

	options := connectors.DiscoveryOptions{
		Recursive: recursive,
		MinSize:   minSize,
		MaxSize:   maxSize,
	}
	if modifiedAfter != "" {
		t, err := time.Parse("2006-01-02", modifiedAfter)
		if err != nil {
			return nil, fmt.Errorf("invalid --modified-after %q: %w", modifiedAfter, err)
		}
		options.ModifiedAfter = t
	}
	return connectors.DiscoverFiles(dirPath, fileFormat, options)
}

// profileFiles profiles every file on a bounded pool of workers. A failing
// file is recorded in its entry and never stops the others.
func profileFiles(ctx context.Context, runner *pipeline.Runner, files []connectors.FileMeta, bar *progressbar.ProgressBar) ([]report.ScanEntry, []*pipeline.ProfileOutcome) {
	workers := scanWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	entries := make([]report.ScanEntry, len(files))
	outcomes := make([]*pipeline.ProfileOutcome, len(files))

	opts := parser.DefaultOptions()
	opts.MaxRows = scanMaxRows

	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			defer bar.Add(1)

			began := time.Now()
			entries[i] = report.ScanEntry{Path: f.Path, Size: f.Size}

			ds, err := parser.Load(f.Path, opts)
			if err != nil {
				entries[i].Err = err
				return nil
			}
			out, err := runner.ProfileDataset(ctx, ds, f.Name())
			if err != nil {
				entries[i].Err = err
				return nil
			}

			entries[i].Result = out.Result
			entries[i].Score = out.Score
			entries[i].Duration = time.Since(began)
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	return entries, outcomes
}
