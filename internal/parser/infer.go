package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/peekknuf/dataiq/internal/dataset"
)

// DefaultNullValues are the tokens read as missing. The list follows the
// common dataframe NA defaults so exported files round-trip.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

type nullSet map[string]struct{}

func newNullSet(tokens []string) nullSet {
	if tokens == nil {
		tokens = DefaultNullValues
	}
	s := make(nullSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

func (s nullSet) isNull(raw string) bool {
	_, ok := s[raw]
	return ok
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
	return v, err == nil
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xXpP_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseTime(s string) (time.Time, bool) {
	t, err := dataset.ParseTime(s)
	return t, err == nil
}

// inferColumn decides the storage type of a raw text column and converts
// its cells into tagged values. The first rule that accepts every non-null
// cell wins: int64, float64, bool, datetime64 (only when parseDates), string.
// A column with rows but no values at all is float64, like an all-NaN column.
func inferColumn(name string, raw []string, nulls nullSet, parseDates bool) dataset.Column {
	values := make([]dataset.Value, len(raw))
	nonNull := 0
	for _, r := range raw {
		if !nulls.isNull(r) {
			nonNull++
		}
	}

	if len(raw) == 0 {
		return dataset.Column{Name: name, Storage: dataset.StorageObject, Values: values}
	}
	if nonNull == 0 {
		return dataset.Column{Name: name, Storage: dataset.StorageFloat, Values: values}
	}

	if all(raw, nulls, func(s string) bool { _, ok := parseInt(s); return ok }) {
		fill(values, raw, nulls, func(s string) dataset.Value { v, _ := parseInt(s); return dataset.Int(v) })
		return dataset.Column{Name: name, Storage: dataset.StorageInt, Values: values}
	}

	if all(raw, nulls, func(s string) bool { _, ok := parseFloat(s); return ok }) {
		fill(values, raw, nulls, func(s string) dataset.Value { v, _ := parseFloat(s); return dataset.Float(v) })
		return dataset.Column{Name: name, Storage: dataset.StorageFloat, Values: values}
	}

	if all(raw, nulls, func(s string) bool { _, ok := parseBool(s); return ok }) {
		fill(values, raw, nulls, func(s string) dataset.Value { v, _ := parseBool(s); return dataset.Bool(v) })
		return dataset.Column{Name: name, Storage: dataset.StorageBool, Values: values}
	}

	if parseDates && all(raw, nulls, func(s string) bool { _, ok := parseTime(s); return ok }) {
		fill(values, raw, nulls, func(s string) dataset.Value { v, _ := parseTime(s); return dataset.Time(v) })
		return dataset.Column{Name: name, Storage: dataset.StorageTemporal, Values: values}
	}

	fill(values, raw, nulls, dataset.Text)
	return dataset.Column{Name: name, Storage: dataset.StorageText, Values: values}
}

func all(raw []string, nulls nullSet, accept func(string) bool) bool {
	for _, r := range raw {
		if nulls.isNull(r) {
			continue
		}
		if !accept(r) {
			return false
		}
	}
	return true
}

func fill(dst []dataset.Value, raw []string, nulls nullSet, conv func(string) dataset.Value) {
	for i, r := range raw {
		if nulls.isNull(r) {
			dst[i] = dataset.Null()
			continue
		}
		dst[i] = conv(r)
	}
}
