// Package storage persists profiles, cleaned datasets and the profile run
// history.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/profiler"
)

var ErrProfileNotFound = errors.New("profile not found")

// PersistenceError reports a failure to write or read a persisted artifact.
// The in-memory result that was being saved is still valid.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

var profileHeader = []string{
	"column", "dtype", "inferred_type", "null_count", "duplicate_rows",
	"type_mismatch_count", "unique_count", "mean", "median", "std",
	"min", "max", "total_rows",
}

const (
	profilePrefix = "profile_"
	cleanedPrefix = "cleaned_"
)

// SafeName turns a dataset name into a file name fragment. Path separators
// become underscores and an empty name becomes "dataset".
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "dataset"
	}
	return name
}

// ProfileInfo describes a persisted profile file.
type ProfileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// ProfileStore keeps one CSV per dataset under dir.
type ProfileStore struct {
	dir    string
	logger *zap.Logger
}

func NewProfileStore(dir string, logger *zap.Logger) *ProfileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileStore{dir: dir, logger: logger.Named("profiles")}
}

func (s *ProfileStore) Dir() string { return s.dir }

func (s *ProfileStore) Path(name string) string {
	return filepath.Join(s.dir, profilePrefix+SafeName(name)+".csv")
}

// Save writes the result, replacing any earlier profile of the same name.
// Errors are *PersistenceError.
func (s *ProfileStore) Save(r *profiler.Result) (string, error) {
	path := s.Path(r.Name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".profile-*.csv")
	if err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := writeProfile(tmp, r); err != nil {
		tmp.Close()
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}

	s.logger.Info("Saved profile", zap.String("dataset", r.Name), zap.String("path", path))
	return path, nil
}

func writeProfile(w io.Writer, r *profiler.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(profileHeader); err != nil {
		return err
	}

	for _, c := range r.Columns {
		record := []string{
			c.Name,
			c.StorageType,
			string(c.InferredType),
			strconv.Itoa(c.NullCount),
			strconv.Itoa(c.DuplicateRows),
			strconv.Itoa(c.TypeMismatchCount),
			strconv.Itoa(c.UniqueCount),
			c.Mean.String(),
			c.Median.String(),
			c.Std.String(),
			c.Min.String(),
			c.Max.String(),
			strconv.Itoa(c.TotalRows),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Load reads a persisted profile back. Overall counts are rebuilt from the
// per-column rows.
func (s *ProfileStore) Load(name string) (*profiler.Result, error) {
	path := s.Path(name)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return nil, &PersistenceError{Path: path, Err: err}
	}
	defer f.Close()

	r, err := readProfile(f, name)
	if err != nil {
		return nil, &PersistenceError{Path: path, Err: err}
	}
	return r, nil
}

func readProfile(rd io.Reader, name string) (*profiler.Result, error) {
	cr := csv.NewReader(rd)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty profile file")
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[h] = i
	}
	for _, h := range profileHeader {
		if _, ok := index[h]; !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}

	result := &profiler.Result{Name: name}
	for line, rec := range records[1:] {
		var p columnParser
		get := func(h string) string { return rec[index[h]] }

		col := profiler.ColumnProfile{
			Name:              get("column"),
			StorageType:       get("dtype"),
			InferredType:      profiler.SemanticType(get("inferred_type")),
			NullCount:         p.int(get("null_count")),
			DuplicateRows:     p.int(get("duplicate_rows")),
			TypeMismatchCount: p.int(get("type_mismatch_count")),
			UniqueCount:       p.int(get("unique_count")),
			Mean:              p.stat(get("mean")),
			Median:            p.stat(get("median")),
			Std:               p.stat(get("std")),
			Min:               p.stat(get("min")),
			Max:               p.stat(get("max")),
			TotalRows:         p.int(get("total_rows")),
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, p.err)
		}
		result.Columns = append(result.Columns, col)
	}

	result.Overall.Columns = len(result.Columns)
	for i, c := range result.Columns {
		if i == 0 {
			result.Overall.Rows = c.TotalRows
			result.Overall.DuplicateRows = c.DuplicateRows
		}
		result.Overall.TotalNulls += c.NullCount
	}
	return result, nil
}

// columnParser keeps the first conversion error.
type columnParser struct{ err error }

func (p *columnParser) int(s string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = err
	}
	return v
}

func (p *columnParser) stat(s string) profiler.Stat {
	if p.err != nil {
		return profiler.Stat{}
	}
	v, err := profiler.ParseStat(s)
	if err != nil {
		p.err = err
	}
	return v
}

// List returns persisted profiles, most recently modified first.
func (s *ProfileStore) List() ([]ProfileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Path: s.dir, Err: err}
	}

	var out []ProfileInfo
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, profilePrefix) || !strings.HasSuffix(n, ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ProfileInfo{
			Name:     strings.TrimSuffix(strings.TrimPrefix(n, profilePrefix), ".csv"),
			Path:     filepath.Join(s.dir, n),
			Modified: info.ModTime(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Modified.Equal(out[j].Modified) {
			return out[i].Name < out[j].Name
		}
		return out[i].Modified.After(out[j].Modified)
	})
	return out, nil
}
