package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotTemporal = errors.New("value is not a date/time")

var temporalLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01-02-2006",
	"01-02-06",
	"01/02/2006",
	"01/02/06",
	"1/2/2006",
	"1/2/06",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"20060102",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// ParseTime parses s with a permissive list of layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrNotTemporal
	}
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrNotTemporal, s)
}

// ParseTemporal interprets a value as a point in time. Temporal values
// always succeed, text is parsed with ParseTime and numbers are Unix
// seconds. Booleans and nulls fail.
func ParseTemporal(v Value) (time.Time, error) {
	switch v.kind {
	case KindTemporal:
		return v.t, nil
	case KindText:
		return ParseTime(v.s)
	case KindInteger:
		return time.Unix(v.i, 0).UTC(), nil
	case KindFloat:
		sec := int64(v.f)
		nsec := int64((v.f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrNotTemporal, v.kind)
}
