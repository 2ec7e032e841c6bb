package profiler

import "math"

// Weights are the penalty points subtracted for a ratio of 1.0.
type Weights struct {
	Null      float64
	Duplicate float64
	Mismatch  float64
}

func DefaultWeights() Weights {
	return Weights{Null: 50, Duplicate: 25, Mismatch: 25}
}

// Breakdown exposes the ratios behind a score.
type Breakdown struct {
	NullRatio      float64 `json:"null_ratio"`
	DuplicateRatio float64 `json:"duplicate_ratio"`
	MismatchRatio  float64 `json:"mismatch_ratio"`
	Score          float64 `json:"score"`
}

type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score reduces a result to [0, 100]. It never fails; a nil or empty
// result scores 100.
func (s *Scorer) Score(r *Result) float64 {
	return s.Explain(r).Score
}

func (s *Scorer) Explain(r *Result) Breakdown {
	if r == nil {
		return Breakdown{Score: 100}
	}

	rows := float64(max(1, r.Overall.Rows))
	cells := rows * float64(max(1, len(r.Columns)))

	b := Breakdown{
		NullRatio:      math.Min(1, float64(r.Overall.TotalNulls)/cells),
		DuplicateRatio: math.Min(1, float64(r.Overall.DuplicateRows)/rows),
		MismatchRatio:  math.Min(1, float64(r.TotalMismatches())/cells),
	}

	score := 100 -
		s.weights.Null*b.NullRatio -
		s.weights.Duplicate*b.DuplicateRatio -
		s.weights.Mismatch*b.MismatchRatio

	b.Score = math.Max(0, math.Min(100, score))
	return b
}

// Grade buckets a score into the quality labels shown to users.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "Good"
	case score >= 75:
		return "Fair"
	default:
		return "Poor"
	}
}
