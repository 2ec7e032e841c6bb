package storage

import (
	"os"
	"path/filepath"

	"github.com/peekknuf/dataiq/internal/dataset"
	"github.com/peekknuf/dataiq/internal/parser"
)

// CleanedPath is where the cleaned copy of a dataset is written.
func CleanedPath(dir, name string) string {
	return filepath.Join(dir, cleanedPrefix+SafeName(name)+".csv")
}

// SaveCleaned writes ds as CSV to <dir>/cleaned_<name>.csv.
func SaveCleaned(dir string, ds *dataset.Dataset, name string) (string, error) {
	path := CleanedPath(dir, name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}

	if err := parser.WriteCSV(f, ds); err != nil {
		f.Close()
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	return path, nil
}
