package dataset

import "strings"

// StorageType is the declared backing type of a column.
type StorageType uint8

const (
	StorageObject StorageType = iota
	StorageInt
	StorageFloat
	StorageBool
	StorageTemporal
	StorageText
)

// String returns the dtype label persisted with profiles.
func (s StorageType) String() string {
	switch s {
	case StorageInt:
		return "int64"
	case StorageFloat:
		return "float64"
	case StorageBool:
		return "bool"
	case StorageTemporal:
		return "datetime64"
	case StorageText:
		return "string"
	}
	return "object"
}

// IsNumeric reports whether the column is stored as integers or floats.
// Booleans are not numeric here.
func (s StorageType) IsNumeric() bool {
	return s == StorageInt || s == StorageFloat
}

// ParseStorageType maps a dtype label back to a StorageType.
func ParseStorageType(label string) StorageType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "int64", "int32", "int", "integer":
		return StorageInt
	case "float64", "float32", "float":
		return StorageFloat
	case "bool", "boolean":
		return StorageBool
	case "datetime64", "datetime64[ns]", "datetime", "timestamp":
		return StorageTemporal
	case "string", "text":
		return StorageText
	}
	return StorageObject
}

// StorageForKind is the storage type that naturally holds values of kind k.
func StorageForKind(k Kind) StorageType {
	switch k {
	case KindInteger:
		return StorageInt
	case KindFloat:
		return StorageFloat
	case KindBoolean:
		return StorageBool
	case KindTemporal:
		return StorageTemporal
	case KindText:
		return StorageText
	}
	return StorageObject
}
