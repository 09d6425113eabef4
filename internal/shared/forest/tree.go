package forest

import (
	"math/rand/v2"
	"slices"
)

// node is one element of a flattened decision tree.
// Leaves carry the class distribution of the training samples that reached them.
type node struct {
	leaf      bool
	feature   int
	threshold float64
	left      int
	right     int
	proba     []float64
}

type tree struct {
	nodes []node
}

type treeBuilder struct {
	x               [][]float64
	y               []int
	nClasses        int
	nFeatures       int
	maxFeatures     int
	minSamplesSplit int
	rng             *rand.Rand
	nodes           []node
}

// growTree fits a fully grown CART tree on the given (possibly repeated) sample indices.
func growTree(x [][]float64, y []int, idx []int, nClasses, maxFeatures, minSamplesSplit int, rng *rand.Rand) *tree {
	b := &treeBuilder{
		x:               x,
		y:               y,
		nClasses:        nClasses,
		nFeatures:       len(x[0]),
		maxFeatures:     maxFeatures,
		minSamplesSplit: minSamplesSplit,
		rng:             rng,
	}
	b.build(idx)
	return &tree{nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int) int {
	counts := b.classCounts(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{})

	if len(idx) < b.minSamplesSplit || isPure(counts) {
		b.nodes[id] = b.leaf(counts, len(idx))
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[id] = b.leaf(counts, len(idx))
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left)
	r := b.build(right)
	b.nodes[id] = node{feature: feature, threshold: threshold, left: l, right: r}
	return id
}

// bestSplit draws candidate features in random order and keeps the lowest
// weighted Gini split. Features constant within the node are skipped and do not
// count toward maxFeatures. The search continues past maxFeatures until at least
// one valid split has been found.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := 0.0
	visited := 0

	order := make([]int, len(idx))
	for _, f := range b.rng.Perm(b.nFeatures) {
		if visited >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		copy(order, idx)
		slices.SortStableFunc(order, func(i, j int) int {
			switch {
			case b.x[i][f] < b.x[j][f]:
				return -1
			case b.x[i][f] > b.x[j][f]:
				return 1
			default:
				return 0
			}
		})
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}
		visited++

		threshold, impurity := b.scanFeature(order, f)
		if bestFeature < 0 || impurity < bestImpurity {
			bestFeature, bestThreshold, bestImpurity = f, threshold, impurity
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// scanFeature sweeps the sorted samples and returns the midpoint threshold with
// the lowest weighted child impurity.
func (b *treeBuilder) scanFeature(order []int, f int) (float64, float64) {
	n := len(order)
	right := b.classCounts(order)
	left := make([]int, b.nClasses)

	bestThreshold, bestImpurity := 0.0, -1.0
	for k := 0; k < n-1; k++ {
		c := b.y[order[k]]
		left[c]++
		right[c]--
		cur, next := b.x[order[k]][f], b.x[order[k+1]][f]
		if cur == next {
			continue
		}
		nl, nr := k+1, n-k-1
		impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
		if bestImpurity < 0 || impurity < bestImpurity {
			bestImpurity = impurity
			bestThreshold = cur + (next-cur)/2
			// guard against the midpoint rounding up to next
			if bestThreshold >= next {
				bestThreshold = cur
			}
		}
	}
	return bestThreshold, bestImpurity
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func (b *treeBuilder) leaf(counts []int, n int) node {
	proba := make([]float64, b.nClasses)
	if n > 0 {
		for c, k := range counts {
			proba[c] = float64(k) / float64(n)
		}
	}
	return node{leaf: true, proba: proba}
}

func (t *tree) predict(x []float64) []float64 {
	n := t.nodes[0]
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.proba
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, k := range counts {
		p := float64(k) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, k := range counts {
		if k > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}
