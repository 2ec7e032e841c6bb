// Package connectors fetches datasets from relational databases and finds
// upload files on disk.
package connectors

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/dataset"
)

const DefaultSampleRows = 1000

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// ColumnInfo describes one column of a table as reported by the catalog.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// Source is a relational data source that can be listed and sampled.
type Source interface {
	TestConnection(ctx context.Context) error
	ListTables(ctx context.Context, schema string) ([]string, error)
	GetColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error)
	// SampleTable fetches up to limit rows. limit <= 0 uses the configured
	// sample size.
	SampleTable(ctx context.Context, schema, table string, limit int) (*dataset.Dataset, error)
	Close() error
}

// Open connects to the database described by cfg.Database.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sampleRows := cfg.Fetch.SampleRows
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	switch cfg.Database.Driver {
	case "postgres":
		return NewPostgresSource(ctx, cfg.Database, sampleRows, logger)
	case "sqlserver":
		return NewSQLServerSource(ctx, cfg.Database, sampleRows, logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Database.Driver)
}

func resolveLimit(limit, sampleRows int) int {
	if limit > 0 {
		return limit
	}
	if sampleRows > 0 {
		return sampleRows
	}
	return DefaultSampleRows
}
