// Package forest is a small random forest classifier: bootstrap-aggregated CART
// trees with Gini impurity and a random feature subset at each split.
//
// Training is deterministic for a given Config.Seed. Every tree draws from its
// own PCG stream so a fitted Forest never touches shared random state.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	// ErrEmptyTrainingSet is returned when no samples are supplied.
	ErrEmptyTrainingSet = errors.New("forest: empty training set")
	// ErrShapeMismatch is returned for ragged feature rows or mismatched label counts.
	ErrShapeMismatch = errors.New("forest: shape mismatch")
	// ErrInvalidLabel is returned for negative class labels.
	ErrInvalidLabel = errors.New("forest: invalid label")
)

// Config holds the ensemble hyperparameters.
type Config struct {
	Trees           int    // number of trees; defaults to 100
	Seed            uint64 // base seed
	MaxFeatures     int    // features per split; 0 means floor(sqrt(nFeatures)), at least 1
	MinSamplesSplit int    // minimum samples to split a node; defaults to 2
}

// Forest is a fitted ensemble. It is safe for concurrent reads.
type Forest struct {
	trees     []*tree
	nClasses  int
	nFeatures int
}

// Train fits a forest on x (one row per sample) and integer class labels y.
// At least two classes are always reported, so PredictProba for a forest
// trained on single-class data still returns a two-element distribution.
func Train(x [][]float64, y []int, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d rows but %d labels: %w", len(x), len(y), ErrShapeMismatch)
	}
	nFeatures := len(x[0])
	if nFeatures == 0 {
		return nil, fmt.Errorf("zero features: %w", ErrShapeMismatch)
	}
	nClasses := 2
	for i := range x {
		if len(x[i]) != nFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d: %w", i, len(x[i]), nFeatures, ErrShapeMismatch)
		}
		if y[i] < 0 {
			return nil, fmt.Errorf("label %d at row %d: %w", y[i], i, ErrInvalidLabel)
		}
		if y[i]+1 > nClasses {
			nClasses = y[i] + 1
		}
	}

	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	maxFeatures = min(maxFeatures, nFeatures)

	n := len(x)
	f := &Forest{trees: make([]*tree, cfg.Trees), nClasses: nClasses, nFeatures: nFeatures}
	for t := range cfg.Trees {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)))
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		f.trees[t] = growTree(x, y, idx, nClasses, maxFeatures, cfg.MinSamplesSplit, rng)
	}
	return f, nil
}

// Classes returns the number of classes the forest reports.
func (f *Forest) Classes() int { return f.nClasses }

// PredictProba averages the leaf class distributions of all trees.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.nFeatures {
		return nil, fmt.Errorf("got %d features, want %d: %w", len(x), f.nFeatures, ErrShapeMismatch)
	}
	out := make([]float64, f.nClasses)
	for _, t := range f.trees {
		for c, p := range t.predict(x) {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out, nil
}

// Predict returns the most probable class and its probability.
// Ties resolve to the lower class index.
func (f *Forest) Predict(x []float64) (int, float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best, proba[best], nil
}

// Score is the fraction of samples whose predicted class equals the label.
func (f *Forest) Score(x [][]float64, y []int) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%d rows but %d labels: %w", len(x), len(y), ErrShapeMismatch)
	}
	hits := 0
	for i := range x {
		c, _, err := f.Predict(x[i])
		if err != nil {
			return 0, err
		}
		if c == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(x)), nil
}
