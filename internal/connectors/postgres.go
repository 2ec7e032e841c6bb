package connectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/dataset"
)

// qualifiedTableName returns a properly quoted table reference.
// If schemaName is empty, returns just the quoted table name.
func qualifiedTableName(schemaName, tableName string) string {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	if schemaName == "" {
		return quotedTable
	}
	return pgx.Identifier{schemaName}.Sanitize() + "." + quotedTable
}

// PostgresSource reads from PostgreSQL through a pgx pool.
type PostgresSource struct {
	pool       *pgxpool.Pool
	cfg        config.DatabaseConfig
	sampleRows int
	logger     *zap.Logger
}

func NewPostgresSource(ctx context.Context, cfg config.DatabaseConfig, sampleRows int, logger *zap.Logger) (*PostgresSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return newPostgresSourceFromPool(pool, cfg, sampleRows, logger), nil
}

func newPostgresSourceFromPool(pool *pgxpool.Pool, cfg config.DatabaseConfig, sampleRows int, logger *zap.Logger) *PostgresSource {
	return &PostgresSource{
		pool:       pool,
		cfg:        cfg,
		sampleRows: sampleRows,
		logger:     logger.Named("postgres"),
	}
}

// TestConnection verifies the server is reachable and that we are connected
// to the configured database.
func (s *PostgresSource) TestConnection(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		s.logger.Error("Connection test failed", zap.Error(err))
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := s.pool.QueryRow(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}

	if !strings.EqualFold(currentDB, s.cfg.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", s.cfg.Database, currentDB)
	}

	s.logger.Info("Connection test succeeded", zap.String("database", currentDB))
	return nil
}

func (s *PostgresSource) schema(schema string) string {
	if schema != "" {
		return schema
	}
	return s.cfg.DefaultSchema()
}

// ListTables returns the base tables of a schema in name order.
func (s *PostgresSource) ListTables(ctx context.Context, schema string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema = $1
		ORDER BY table_name
	`

	rows, err := s.pool.Query(ctx, query, s.schema(schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}
	return tables, nil
}

func (s *PostgresSource) GetColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error) {
	const query = `
		SELECT column_name, udt_name, is_nullable = 'YES', ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, s.schema(schema), table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Position); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

// SampleTable fetches the first limit rows of a table. Column storage types
// come from the result's type OIDs.
func (s *PostgresSource) SampleTable(ctx context.Context, schema, table string, limit int) (*dataset.Dataset, error) {
	limit = resolveLimit(limit, s.sampleRows)
	query := fmt.Sprintf("SELECT * FROM %s LIMIT $1", qualifiedTableName(s.schema(schema), table))

	s.logger.Info("Sampling table",
		zap.String("schema", s.schema(schema)),
		zap.String("table", table),
		zap.Int("limit", limit))

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	typeNames := make([]string, len(fields))
	typeMap := rows.Conn().TypeMap()
	for i, f := range fields {
		names[i] = f.Name
		if t, ok := typeMap.TypeForOID(f.DataTypeOID); ok {
			typeNames[i] = t.Name
		}
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return datasetFromRows(names, typeNames, data)
}

func (s *PostgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var _ Source = (*PostgresSource)(nil)
