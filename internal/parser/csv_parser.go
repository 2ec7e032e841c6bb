package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var ErrRaggedRow = errors.New("row has more fields than the header")

// ParserConfig contains configuration options for the CSV reader
type ParserConfig struct {
	Delimiter  rune // Field delimiter; 0 means detect
	Comment    rune // Lines starting with this rune are skipped; 0 disables
	TrimSpace  bool // Trim leading whitespace in fields
	LazyQuotes bool // Accept bare quotes inside unquoted fields
	SampleSize int  // Bytes inspected by DetectDelimiter
}

// DefaultParserConfig returns a default configuration for the CSV reader
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		LazyQuotes: true,
		SampleSize: 64 * 1024,
	}
}

// candidate delimiters in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

// IsValidDelimiter checks if a rune is a valid CSV delimiter
func IsValidDelimiter(delim rune) bool {
	for _, d := range delimiters {
		if d == delim {
			return true
		}
	}
	return false
}

// DetectDelimiter counts candidate delimiters outside quotes in the first
// few lines of data and returns the most frequent, defaulting to comma.
func DetectDelimiter(data []byte, sampleSize int) rune {
	if sampleSize <= 0 || sampleSize > len(data) {
		sampleSize = len(data)
	}
	sample := data[:sampleSize]

	counts := make(map[rune]int, len(delimiters))
	lines := 0
	inQuote := false
	for i := 0; i < len(sample) && lines < 5; i++ {
		c := sample[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '\n':
			lines++
		default:
			for _, d := range delimiters {
				if c == byte(d) {
					counts[d]++
				}
			}
		}
	}

	best, maxCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > maxCount {
			best, maxCount = d, counts[d]
		}
	}
	return best
}

// table is the raw text grid read from a delimited file.
type table struct {
	header []string
	rows   [][]string
}

// readDelimited reads a header row and all records. Rows shorter than the
// header are padded with empty fields; longer rows fail with ErrRaggedRow.
func readDelimited(r io.Reader, cfg ParserConfig) (*table, error) {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	if !IsValidDelimiter(cfg.Delimiter) {
		return nil, fmt.Errorf("invalid delimiter %q", cfg.Delimiter)
	}

	cr := csv.NewReader(r)
	cr.Comma = cfg.Delimiter
	cr.Comment = cfg.Comment
	cr.TrimLeadingSpace = cfg.TrimSpace
	cr.LazyQuotes = cfg.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("file has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	t := &table{header: normalizeHeader(header)}
	width := len(t.header)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) > width {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrRaggedRow, line, len(record), width)
		}
		for len(record) < width {
			record = append(record, "")
		}
		t.rows = append(t.rows, record)
	}

	return t, nil
}

// normalizeHeader names blank columns "Unnamed: i" and suffixes repeated
// names with .1, .2 and so on.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	repeats := make(map[string]int)

	for i, h := range header {
		h = strings.TrimSpace(h)
		if !utf8.ValidString(h) {
			h = strings.ToValidUTF8(h, "?")
		}
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}

		name := h
		for used[name] {
			repeats[h]++
			name = fmt.Sprintf("%s.%d", h, repeats[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
