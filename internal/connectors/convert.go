package connectors

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/spf13/cast"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// StorageForTypeName maps a Postgres or SQL Server column type name to the
// storage type used for profiling.
func StorageForTypeName(name string) dataset.StorageType {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}

	switch n {
	case "int2", "int4", "int8", "smallint", "integer", "bigint", "int", "tinyint",
		"serial", "bigserial", "smallserial":
		return dataset.StorageInt
	case "float4", "float8", "real", "double precision", "float", "numeric", "decimal",
		"money", "smallmoney":
		return dataset.StorageFloat
	case "bool", "boolean", "bit":
		return dataset.StorageBool
	case "date", "timestamp", "timestamptz", "timestamp without time zone",
		"timestamp with time zone", "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return dataset.StorageTemporal
	case "text", "varchar", "character varying", "bpchar", "char", "character", "name",
		"citext", "nchar", "nvarchar", "ntext", "uuid", "uniqueidentifier", "xml":
		return dataset.StorageText
	}
	return dataset.StorageObject
}

// ValueFromDriver converts a value returned by a database driver into a
// tagged value for a column of the given storage. A value that cannot be
// coerced is kept as text so profiling reports it as a type mismatch.
func ValueFromDriver(v any, st dataset.StorageType) dataset.Value {
	if v == nil {
		return dataset.Null()
	}

	switch x := v.(type) {
	case []byte:
		if st == dataset.StorageText || st == dataset.StorageObject {
			if len(x) == 16 && !isPrintable(x) {
				var id mssql.UniqueIdentifier
				if err := id.Scan(x); err == nil {
					return dataset.Text(id.String())
				}
			}
		}
		v = string(x)
	case [16]byte:
		return dataset.Text(uuid.UUID(x).String())
	case pgtype.Numeric:
		if !x.Valid {
			return dataset.Null()
		}
		if x.NaN {
			return dataset.Null()
		}
		if f, err := x.Float64Value(); err == nil && f.Valid {
			v = f.Float64
		}
	}

	switch st {
	case dataset.StorageInt:
		if i, err := cast.ToInt64E(v); err == nil && !isFractional(v) {
			return dataset.Int(i)
		}
	case dataset.StorageFloat:
		if f, err := cast.ToFloat64E(v); err == nil {
			return dataset.Float(f)
		}
	case dataset.StorageBool:
		if b, err := cast.ToBoolE(v); err == nil {
			return dataset.Bool(b)
		}
	case dataset.StorageTemporal:
		switch t := v.(type) {
		case time.Time:
			return dataset.Time(t)
		case string:
			if parsed, err := dataset.ParseTime(t); err == nil {
				return dataset.Time(parsed)
			}
		}
	case dataset.StorageText:
		if s, ok := v.(string); ok {
			return dataset.Text(s)
		}
	}

	return dataset.Text(toText(v))
}

func toText(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func isFractional(v any) bool {
	switch f := v.(type) {
	case float32:
		return float32(int64(f)) != f
	case float64:
		return float64(int64(f)) != f
	}
	return false
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// datasetFromRows builds a dataset from driver rows and column type names.
func datasetFromRows(names, typeNames []string, rows [][]any) (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(names))
	for j, name := range names {
		st := StorageForTypeName(typeNames[j])
		values := make([]dataset.Value, len(rows))
		for i, row := range rows {
			values[i] = ValueFromDriver(row[j], st)
		}
		cols[j] = dataset.Column{Name: name, Storage: st, Values: values}
	}
	return dataset.New(cols...)
}
