package ensemble

import (
	"context"
	"math/rand/v2"
	"sort"
)

// ForestOptions tunes a random forest fit.
type ForestOptions struct {
	Trees    int
	MaxDepth int
	Seed     uint64
}

// DefaultForestOptions mirrors the production forest: 50 trees of depth 5.
var DefaultForestOptions = ForestOptions{Trees: 50, MaxDepth: 5, Seed: 42}

// Forest is a bagged ensemble of regression trees.
type Forest struct {
	trees      []tree
	importance []float64
}

type tree struct {
	nodes []treeNode
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      int
	right     int
	leaf      bool
}

// FitForest grows opts.Trees trees, each on a bootstrap sample of the rows,
// splitting on the threshold that most reduces squared error. It stops early
// when ctx is done.
func FitForest(ctx context.Context, x [][]float64, y []float64, opts ForestOptions) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errEmptyTraining
	}
	if opts.Trees <= 0 {
		opts.Trees = DefaultForestOptions.Trees
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultForestOptions.MaxDepth
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed+1))
	dim := len(x[0])
	f := &Forest{importance: make([]float64, dim)}

	for t := 0; t < opts.Trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.IntN(len(x))
		}

		b := &builder{x: x, y: y, rng: rng, maxDepth: opts.MaxDepth, gain: make([]float64, dim)}
		b.grow(sample, 0)
		f.trees = append(f.trees, tree{nodes: b.nodes})

		var total float64
		for _, g := range b.gain {
			total += g
		}
		if total > 0 {
			for d, g := range b.gain {
				f.importance[d] += g / total
			}
		}
	}

	var total float64
	for _, v := range f.importance {
		total += v
	}
	if total > 0 {
		for d := range f.importance {
			f.importance[d] /= total
		}
	}
	return f, nil
}

// Predict averages the trees' outputs for one row.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// Importance is the normalized impurity reduction credited to each column.
func (f *Forest) Importance() []float64 {
	return append([]float64(nil), f.importance...)
}

func (t tree) predict(row []float64) float64 {
	i := 0
	for !t.nodes[i].leaf {
		n := t.nodes[i]
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return t.nodes[i].value
}

type builder struct {
	x        [][]float64
	y        []float64
	rng      *rand.Rand
	nodes    []treeNode
	gain     []float64
	maxDepth int
}

// grow appends the subtree for sample and returns its node index.
func (b *builder) grow(sample []int, depth int) int {
	idx := len(b.nodes)
	sum, sq := b.moments(sample)
	n := float64(len(sample))
	mean := sum / n
	sse := sq - sum*sum/n
	b.nodes = append(b.nodes, treeNode{leaf: true, value: mean})

	if depth >= b.maxDepth || len(sample) < 2 || sse <= 1e-12*max(1, sq) {
		return idx
	}

	feature, threshold, childSSE, ok := b.bestSplit(sample)
	if !ok || childSSE >= sse {
		return idx
	}

	var left, right []int
	for _, i := range sample {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}
	b.gain[feature] += sse - childSSE

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = treeNode{feature: feature, threshold: threshold, left: l, right: r, value: mean}
	return idx
}

func (b *builder) moments(sample []int) (sum, sq float64) {
	for _, i := range sample {
		sum += b.y[i]
		sq += b.y[i] * b.y[i]
	}
	return sum, sq
}

// bestSplit scans every column, in random order, for the midpoint threshold
// with the lowest total squared error across both children.
func (b *builder) bestSplit(sample []int) (feature int, threshold, sse float64, ok bool) {
	dim := len(b.x[0])
	order := b.rng.Perm(dim)
	sorted := append([]int(nil), sample...)
	best := 0.0

	for _, d := range order {
		sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]][d] < b.x[sorted[j]][d] })

		totalSum, totalSq := b.moments(sorted)
		var leftSum, leftSq float64
		for k := 0; k < len(sorted)-1; k++ {
			v := b.y[sorted[k]]
			leftSum += v
			leftSq += v * v

			cur, next := b.x[sorted[k]][d], b.x[sorted[k+1]][d]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := float64(len(sorted)) - nl
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			split := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if !ok || split < best {
				mid := cur + (next-cur)/2
				if mid >= next {
					mid = cur
				}
				feature, threshold, best, ok = d, mid, split, true
			}
		}
	}
	return feature, threshold, best, ok
}
