// Package parser turns uploaded delimited text and Excel files into
// datasets with inferred column storage types.
package parser

import (
	"fmt"
	"io"

	"github.com/peekknuf/dataiq/internal/dataset"
	"github.com/peekknuf/dataiq/internal/fileio"
)

const DefaultSampleSeed = 42

type Options struct {
	Parser ParserConfig
	// MaxRows > 0 samples that many rows when the file is larger, keeping
	// the original row order.
	MaxRows int
	Seed    int64
	// ParseDates lets all-date text columns become datetime64.
	ParseDates bool
	// Sheet selects the Excel sheet; empty means the first one.
	Sheet string
	// NullValues overrides DefaultNullValues.
	NullValues []string
}

func DefaultOptions() Options {
	return Options{
		Parser: DefaultParserConfig(),
		Seed:   DefaultSampleSeed,
	}
}

// Load reads a file from disk.
func Load(path string, opts Options) (*dataset.Dataset, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return load(r, opts)
}

// LoadReader reads an upload stream. name is used to detect the format.
func LoadReader(name string, src io.Reader, opts Options) (*dataset.Dataset, error) {
	r, err := fileio.NewReader(name, src)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return load(r, opts)
}

func load(r *fileio.Reader, opts Options) (*dataset.Dataset, error) {
	var (
		t   *table
		err error
	)

	switch r.Format {
	case fileio.FormatXLSX:
		t, err = readXLSX(r, opts.Sheet)
	case fileio.FormatTSV:
		cfg := opts.Parser
		cfg.Delimiter = '\t'
		t, err = readDelimited(r, cfg)
	default:
		cfg := opts.Parser
		if cfg.Delimiter == 0 {
			cfg.Delimiter = DetectDelimiter(r.Peek(sampleSize(cfg)), 0)
		}
		t, err = readDelimited(r, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name, err)
	}

	return t.toDataset(opts)
}

func sampleSize(cfg ParserConfig) int {
	if cfg.SampleSize > 0 {
		return cfg.SampleSize
	}
	return DefaultParserConfig().SampleSize
}

// toDataset samples rows if needed and then infers each column. Sampling
// happens first so inference only sees the rows that are kept.
func (t *table) toDataset(opts Options) (*dataset.Dataset, error) {
	rows := t.rows
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		rows = sampleRows(rows, opts.MaxRows, opts.Seed)
	}

	nulls := newNullSet(opts.NullValues)
	cols := make([]dataset.Column, len(t.header))
	raw := make([]string, len(rows))

	for j, name := range t.header {
		for i, row := range rows {
			raw[i] = row[j]
		}
		cols[j] = inferColumn(name, raw, nulls, opts.ParseDates)
	}

	return dataset.New(cols...)
}

// sampleRows keeps n rows chosen with a seeded generator, in original order.
func sampleRows(rows [][]string, n int, seed int64) [][]string {
	idx := dataset.SampleIndices(len(rows), n, seed)
	out := make([][]string, len(idx))
	for k, i := range idx {
		out[k] = rows[i]
	}
	return out
}
