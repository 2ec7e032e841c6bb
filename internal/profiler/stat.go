package profiler

import (
	"encoding/json"
	"math"
	"strconv"
)

// Stat is an optional summary statistic. Undefined stats are never
// represented as zero.
type Stat struct {
	Value float64
	Valid bool
}

func Some(v float64) Stat { return Stat{Value: v, Valid: true} }

// String renders the stat for CSV output; undefined stats are empty.
func (s Stat) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// MarshalJSON writes undefined stats as null. Infinities and NaN, which
// JSON numbers cannot hold, are written as the strings "+Inf", "-Inf" and
// "NaN", the same spelling as the CSV output.
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	if math.IsInf(s.Value, 0) || math.IsNaN(s.Value) {
		return json.Marshal(s.String())
	}
	return json.Marshal(s.Value)
}

func (s *Stat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Stat{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := ParseStat(str)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Some(v)
	return nil
}

// ParseStat is the inverse of String.
func ParseStat(s string) (Stat, error) {
	if s == "" {
		return Stat{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Stat{}, err
	}
	return Some(v), nil
}
