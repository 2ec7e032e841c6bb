package dataset

import (
	"math"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindTemporal
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindTemporal:
		return "temporal"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	t    time.Time
	s    string
}

func Null() Value { return Value{} }

func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float returns a float cell. NaN is treated as missing and yields a null.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{kind: KindFloat, f: v}
}

func Bool(v bool) Value { return Value{kind: KindBoolean, b: v} }

func Time(v time.Time) Value { return Value{kind: KindTemporal, t: v} }

func Text(v string) Value { return Value{kind: KindText, s: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumeric reports whether the value is an integer or a float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// AsFloat returns the numeric value as float64 for integer and float cells.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindTemporal
}

func (v Value) AsText() (string, bool) {
	return v.s, v.kind == KindText
}

// String renders the value the way it is written to delimited text.
// Nulls render as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		if v.b {
			return "True"
		}
		return "False"
	case KindTemporal:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format("2006-01-02 15:04:05")
	case KindText:
		return v.s
	}
	return ""
}

// Key returns an equality key used for distinct counting and duplicate rows.
// Integers and floats holding the same number share a key, so Int(1) and
// Float(1.0) are equal.
func (v Value) Key() string {
	switch v.kind {
	case KindInteger:
		return "n:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		// every integral float in [-2^63, 2^63) converts to int64 exactly
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < -math.MinInt64 {
			return "n:" + strconv.FormatInt(int64(v.f), 10)
		}
		return "n:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		if v.b {
			return "b:1"
		}
		return "b:0"
	case KindTemporal:
		return "t:" + strconv.FormatInt(v.t.Unix(), 10) + "." + strconv.Itoa(v.t.Nanosecond())
	case KindText:
		return "s:" + v.s
	}
	return "null"
}

// Equal compares two values using Key semantics.
func (v Value) Equal(o Value) bool {
	return v.Key() == o.Key()
}
