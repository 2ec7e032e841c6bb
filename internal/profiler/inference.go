package profiler

import "github.com/peekknuf/dataiq/internal/dataset"

// SemanticType is the profiling-level classification a column is judged against.
type SemanticType string

const (
	TypeInt      SemanticType = "int"
	TypeFloat    SemanticType = "float"
	TypeBool     SemanticType = "bool"
	TypeDatetime SemanticType = "datetime"
	TypeString   SemanticType = "string"
)

// InferType classifies a column from its storage type alone. Values are
// never sampled, so a text column of digits is still a string column.
func InferType(st dataset.StorageType) SemanticType {
	switch st {
	case dataset.StorageInt:
		return TypeInt
	case dataset.StorageFloat:
		return TypeFloat
	case dataset.StorageBool:
		return TypeBool
	case dataset.StorageTemporal:
		return TypeDatetime
	}
	return TypeString
}

// conforms reports whether a non-null value satisfies the semantic type.
func conforms(v dataset.Value, t SemanticType) bool {
	switch t {
	case TypeInt:
		return v.Kind() == dataset.KindInteger
	case TypeFloat:
		return v.IsNumeric()
	case TypeBool:
		return v.Kind() == dataset.KindBoolean
	case TypeDatetime:
		_, err := dataset.ParseTemporal(v)
		return err == nil
	}
	return v.Kind() == dataset.KindText
}
