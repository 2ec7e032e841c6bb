package connectors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peekknuf/dataiq/internal/fileio"
)

var ErrNoFiles = errors.New("no matching files found")

type FileMeta struct {
	Path        string
	Size        int64
	Modified    time.Time
	Format      string
	Compression string
}

// Name is the dataset name derived from the file: its base name without
// format or compression extensions.
func (m FileMeta) Name() string {
	base := filepath.Base(m.Path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

type DiscoveryOptions struct {
	Recursive      bool
	MinSize        int64
	MaxSize        int64
	ModifiedAfter  time.Time
	ModifiedBefore time.Time
	IncludeHidden  bool
}

// DiscoverFiles walks root for files of the given format (csv, tsv or
// xlsx). Compressed variants such as data.csv.gz match their inner format.
func DiscoverFiles(root string, format string, options DiscoveryOptions) ([]FileMeta, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}

	stat, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", root)
	}
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		return nil, fmt.Errorf("file format cannot be empty")
	}
	if format == "txt" {
		format = fileio.FormatCSV
	}

	var files []FileMeta
	walkFunc := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		hidden := strings.HasPrefix(d.Name(), ".") && path != root
		if d.IsDir() {
			if path != root && (!options.Recursive || (hidden && !options.IncludeHidden)) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden && !options.IncludeHidden {
			return nil
		}

		fileFormat, compression := fileio.DetectType(path)
		if fileFormat != format {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("error getting file info for %s: %w", path, err)
		}

		if options.MinSize > 0 && info.Size() < options.MinSize {
			return nil
		}
		if options.MaxSize > 0 && info.Size() > options.MaxSize {
			return nil
		}
		if !options.ModifiedAfter.IsZero() && info.ModTime().Before(options.ModifiedAfter) {
			return nil
		}
		if !options.ModifiedBefore.IsZero() && info.ModTime().After(options.ModifiedBefore) {
			return nil
		}

		files = append(files, FileMeta{
			Path:        path,
			Size:        info.Size(),
			Modified:    info.ModTime(),
			Format:      fileFormat,
			Compression: compression,
		})
		return nil
	}

	if err := filepath.WalkDir(root, walkFunc); err != nil {
		return nil, fmt.Errorf("directory walk error: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, root)
	}

	return files, nil
}
