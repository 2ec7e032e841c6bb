package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/dataset"
)

// quoteName quotes an identifier the way QUOTENAME does: square brackets
// with ] escaped as ]].
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

func qualifiedSQLServerName(schema, table string) string {
	if schema == "" {
		return quoteName(table)
	}
	return quoteName(schema) + "." + quoteName(table)
}

// SQLServerSource reads from SQL Server through database/sql.
type SQLServerSource struct {
	db         *sql.DB
	cfg        config.DatabaseConfig
	sampleRows int
	logger     *zap.Logger
}

func NewSQLServerSource(ctx context.Context, cfg config.DatabaseConfig, sampleRows int, logger *zap.Logger) (*SQLServerSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConnections))
	}

	return &SQLServerSource{
		db:         db,
		cfg:        cfg,
		sampleRows: sampleRows,
		logger:     logger.Named("sqlserver"),
	}, nil
}

func (s *SQLServerSource) TestConnection(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("Connection test failed", zap.Error(err))
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := s.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}
	if !strings.EqualFold(currentDB, s.cfg.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", s.cfg.Database, currentDB)
	}

	s.logger.Info("Connection test succeeded", zap.String("database", currentDB))
	return nil
}

func (s *SQLServerSource) schema(schema string) string {
	if schema != "" {
		return schema
	}
	return s.cfg.DefaultSchema()
}

func (s *SQLServerSource) ListTables(ctx context.Context, schema string) ([]string, error) {
	const query = `
	SELECT TABLE_NAME
	FROM INFORMATION_SCHEMA.TABLES
	WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1
	ORDER BY TABLE_NAME
	`

	rows, err := s.db.QueryContext(ctx, query, s.schema(schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (s *SQLServerSource) GetColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error) {
	const query = `
	SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN IS_NULLABLE = 'YES' THEN 1 ELSE 0 END, ORDINAL_POSITION
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
	ORDER BY ORDINAL_POSITION
	`

	rows, err := s.db.QueryContext(ctx, query, s.schema(schema), table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Position); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

func (s *SQLServerSource) SampleTable(ctx context.Context, schema, table string, limit int) (*dataset.Dataset, error) {
	limit = resolveLimit(limit, s.sampleRows)
	query := fmt.Sprintf("SELECT TOP (@p1) * FROM %s", qualifiedSQLServerName(s.schema(schema), table))

	s.logger.Info("Sampling table",
		zap.String("schema", s.schema(schema)),
		zap.String("table", table),
		zap.Int("limit", limit))

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	names := make([]string, len(colTypes))
	typeNames := make([]string, len(colTypes))
	for i, ct := range colTypes {
		names[i] = ct.Name()
		typeNames[i] = ct.DatabaseTypeName()
	}

	var data [][]any
	for rows.Next() {
		values := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return datasetFromRows(names, typeNames, data)
}

func (s *SQLServerSource) Close() error {
	return s.db.Close()
}

var _ Source = (*SQLServerSource)(nil)
