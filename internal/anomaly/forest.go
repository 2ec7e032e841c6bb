package anomaly

import (
	"math"
	"math/rand"
)

const eulerGamma = 0.5772156649015329

// averagePathLength is c(n), the mean path length of an unsuccessful
// search in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

type node struct {
	split       float64
	left, right *node
	size        int
}

func (n *node) leaf() bool { return n.left == nil }

// forest is a one-dimensional isolation forest.
type forest struct {
	trees      []*node
	sampleSize int
}

func fitForest(xs []float64, trees, sampleSize int, rng *rand.Rand) *forest {
	psi := min(sampleSize, len(xs))
	maxDepth := int(math.Ceil(math.Log2(float64(max(psi, 2)))))

	f := &forest{trees: make([]*node, 0, trees), sampleSize: psi}
	sample := make([]float64, psi)
	for t := 0; t < trees; t++ {
		for i, j := range rng.Perm(len(xs))[:psi] {
			sample[i] = xs[j]
		}
		f.trees = append(f.trees, grow(sample, 0, maxDepth, rng))
	}
	return f
}

// grow splits xs at a uniform random point between its min and max. The
// slice is partitioned in place.
func grow(xs []float64, depth, maxDepth int, rng *rand.Rand) *node {
	if depth >= maxDepth || len(xs) <= 1 {
		return &node{size: len(xs)}
	}

	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		return &node{size: len(xs)}
	}

	split := lo + rng.Float64()*(hi-lo)
	i := 0
	for j := range xs {
		if xs[j] < split {
			xs[i], xs[j] = xs[j], xs[i]
			i++
		}
	}
	if i == 0 {
		// split landed on lo exactly
		return &node{size: len(xs)}
	}

	return &node{
		split: split,
		left:  grow(xs[:i], depth+1, maxDepth, rng),
		right: grow(xs[i:], depth+1, maxDepth, rng),
		size:  len(xs),
	}
}

func pathLength(n *node, x float64) float64 {
	depth := 0.0
	for !n.leaf() {
		if x < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return depth + averagePathLength(n.size)
}

// score returns the anomaly score in (0, 1]. Scores above 0.5 mark
// outliers.
func (f *forest) score(x float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var total float64
	for _, t := range f.trees {
		total += pathLength(t, x)
	}
	mean := total / float64(len(f.trees))

	c := averagePathLength(f.sampleSize)
	if c == 0 {
		return 0.5
	}
	return math.Pow(2, -mean/c)
}
