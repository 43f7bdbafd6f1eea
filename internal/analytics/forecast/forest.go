package forecast

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
)

// Regressor maps a feature vector to a prediction
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}

// ContextFitter is a Regressor whose training can be abandoned through ctx
type ContextFitter interface {
	FitContext(ctx context.Context, X [][]float64, y []float64) error
}

// RandomForest is a bagged ensemble of CART regression trees. Each tree is grown on a
// bootstrap sample of the training rows; the prediction is the mean over trees.
type RandomForest struct {
	Trees          int    // number of trees (default 200)
	MaxDepth       int    // 0 = grow until leaves are pure
	MinSamplesLeaf int    // default 1
	MaxFeatures    int    // features tried per split, 0 = all
	Seed           uint64 // seed for bootstrap and feature sampling

	trees []*treeNode
}

// NewRandomForest creates a forest with the given tree count and seed
func NewRandomForest(trees int, seed uint64) *RandomForest {
	return &RandomForest{Trees: trees, Seed: seed}
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) leaf() bool {
	return n.left == nil
}

// Fit grows the forest on X (rows) and y
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	return f.FitContext(context.Background(), X, y)
}

// FitContext is Fit, checking ctx before every tree. A cancelled fit leaves the
// forest without trees.
func (f *RandomForest) FitContext(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("random forest: need matching non-empty X and y, got %d rows and %d labels", len(X), len(y))
	}
	features := len(X[0])
	for i, row := range X {
		if len(row) != features {
			return fmt.Errorf("random forest: row %d has %d features, want %d", i, len(row), features)
		}
	}

	trees := f.Trees
	if trees <= 0 {
		trees = 200
	}
	minLeaf := f.MinSamplesLeaf
	if minLeaf <= 0 {
		minLeaf = 1
	}
	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > features {
		maxFeatures = features
	}

	rng := rand.New(rand.NewPCG(f.Seed, f.Seed^0x9e3779b97f4a7c15))
	b := &treeBuilder{
		X:           X,
		y:           y,
		maxDepth:    f.MaxDepth,
		minLeaf:     minLeaf,
		maxFeatures: maxFeatures,
		rng:         rng,
	}

	f.trees = make([]*treeNode, trees)
	n := len(y)
	for t := range f.trees {
		if err := ctx.Err(); err != nil {
			f.trees = nil
			return fmt.Errorf("random forest: stopped after %d of %d trees: %w", t, trees, err)
		}
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		f.trees[t] = b.grow(sample, 0)
	}
	return nil
}

// Predict averages the predictions of every tree
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, root := range f.trees {
		node := root
		for !node.leaf() {
			if x[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		sum += node.value
	}
	return sum / float64(len(f.trees))
}

// TreeCount returns the number of fitted trees
func (f *RandomForest) TreeCount() int {
	return len(f.trees)
}

type treeBuilder struct {
	X           [][]float64
	y           []float64
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand
}

func (b *treeBuilder) mean(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

func (b *treeBuilder) grow(idx []int, depth int) *treeNode {
	node := &treeNode{value: b.mean(idx)}

	if len(idx) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.feature = feature
	node.threshold = threshold
	node.left = b.grow(left, depth+1)
	node.right = b.grow(right, depth+1)
	return node
}

// bestSplit finds the variance-reducing split with the lowest weighted SSE.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)

	totalSum, totalSq := 0.0, 0.0
	for _, i := range idx {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)
	if parentSSE <= 1e-12*(1+totalSq) {
		return 0, 0, false
	}

	candidates := b.featureCandidates()
	bestSSE := parentSSE
	sorted := make([]int, n)

	for _, feat := range candidates {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.X[sorted[a]][feat] < b.X[sorted[c]][feat]
		})

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := b.y[sorted[k]]
			leftSum += v
			leftSq += v * v

			nl := k + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			cur := b.X[sorted[k]][feat]
			next := b.X[sorted[k+1]][feat]
			if cur == next {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				feature = feat
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (b *treeBuilder) featureCandidates() []int {
	features := len(b.X[0])
	all := make([]int, features)
	for i := range all {
		all[i] = i
	}
	if b.maxFeatures >= features {
		return all
	}
	b.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:b.maxFeatures]
}
