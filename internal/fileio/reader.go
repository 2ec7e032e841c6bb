// Package fileio opens upload files for parsing. It transparently
// decompresses gzip and bzip2 input and drops a leading UTF-8 BOM.
package fileio

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const DefaultBufferSize = 1024 * 1024

var (
	bom = []byte{0xef, 0xbb, 0xbf}

	ErrUnsupportedFormat = errors.New("unsupported file format")
)

const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatXLSX = "xlsx"

	CompressionGzip  = "gzip"
	CompressionBzip2 = "bzip2"
)

// DetectType looks at the file extensions of name and returns its format
// and compression. Plain .txt files are treated as delimited text.
func DetectType(name string) (format, compression string) {
	base := strings.ToLower(filepath.Base(name))
	exts := strings.Split(base, ".")
	if len(exts) < 2 {
		return "", ""
	}

	for _, ext := range exts[1:] {
		switch ext {
		case "gz", "gzip":
			compression = CompressionGzip
		case "bz2", "bzip2":
			compression = CompressionBzip2
		case "csv", "txt":
			format = FormatCSV
		case "tsv", "tab":
			format = FormatTSV
		case "xlsx", "xlsm":
			format = FormatXLSX
		}
	}
	return format, compression
}

// Reader is a buffered, decompressed view of a file or upload stream.
type Reader struct {
	Name        string
	Format      string
	Compression string

	br      *bufio.Reader
	closers []io.Closer
	size    int64
}

// Open opens a file on disk. The format is taken from its extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	r, err := NewReader(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append(r.closers, f)
	r.size = info.Size()
	return r, nil
}

// NewReader wraps an already open stream, such as a multipart upload.
// name is only used to detect format and compression.
func NewReader(name string, src io.Reader) (*Reader, error) {
	format, compression := DetectType(name)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}

	r := &Reader{Name: name, Format: format, Compression: compression}

	var stream io.Reader = src
	switch compression {
	case CompressionGzip:
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		r.closers = append(r.closers, gr)
		stream = gr
	case CompressionBzip2:
		stream = bzip2.NewReader(src)
	}

	r.br = bufio.NewReaderSize(stream, DefaultBufferSize)

	if head, err := r.br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		if _, err := r.br.Discard(len(bom)); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

// Peek returns up to n upcoming bytes without consuming them. A short
// stream is not an error.
func (r *Reader) Peek(n int) []byte {
	if n > DefaultBufferSize {
		n = DefaultBufferSize
	}
	b, _ := r.br.Peek(n)
	return b
}

// Size is the on-disk size, or 0 for streams.
func (r *Reader) Size() int64 { return r.size }

// Close closes decompressors before the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
