// Package clustering groups categories and users by behavior using k-means.
package clustering

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Clustering errors.
var (
	ErrNoPoints    = errors.New("no points to cluster")
	ErrInvalidK    = errors.New("invalid cluster count")
	ErrRaggedInput = errors.New("points have different dimensions")
)

// KMeansOptions tunes a k-means fit.
type KMeansOptions struct {
	K       int
	Runs    int
	MaxIter int
	Seed    uint64
}

// DefaultSeed keeps repeated fits on the same data identical.
const DefaultSeed = 42

// KMeansResult is the best partition found across all runs.
type KMeansResult struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// KMeans partitions points into opts.K clusters with k-means++ seeding and
// Lloyd iterations, keeping the run with the lowest inertia. Labels are
// renumbered in order of first appearance, so the first point is always in
// cluster 0. All randomness derives from opts.Seed.
func KMeans(points [][]float64, opts KMeansOptions) (KMeansResult, error) {
	if len(points) == 0 {
		return KMeansResult{}, ErrNoPoints
	}
	if opts.K < 1 || opts.K > len(points) {
		return KMeansResult{}, fmt.Errorf("%w: k=%d for %d points", ErrInvalidK, opts.K, len(points))
	}
	dim := len(points[0])
	for _, p := range points {
		if len(p) != dim {
			return KMeansResult{}, ErrRaggedInput
		}
	}
	if opts.Runs <= 0 {
		opts.Runs = 10
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 300
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	best := KMeansResult{Inertia: math.Inf(1)}
	for run := 0; run < opts.Runs; run++ {
		res := lloyd(points, seedCentroids(points, opts.K, rng), opts.MaxIter)
		if res.Inertia < best.Inertia {
			best = res
		}
	}

	return renumber(best), nil
}

// seedCentroids picks initial centroids with k-means++.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			dists[i] = nearestDistance(p, centroids)
			total += dists[i]
		}

		next := 0
		if total > 0 {
			target := rng.Float64() * total
			var cum float64
			for i, d := range dists {
				if d == 0 {
					continue
				}
				next = i
				cum += d
				if cum > target {
					break
				}
			}
		} else {
			next = rng.IntN(len(points))
		}
		centroids = append(centroids, clone(points[next]))
	}
	return centroids
}

func lloyd(points [][]float64, centroids [][]float64, maxIter int) KMeansResult {
	k := len(centroids)
	dim := len(points[0])
	labels := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			if c := nearest(p, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			counts[labels[i]]++
			for d, v := range p {
				sums[labels[i]][d] += v
			}
		}

		for c := range centroids {
			if counts[c] == 0 {
				// Reseed an empty cluster with the point farthest from its centroid.
				far := farthestPoint(points, labels, centroids)
				centroids[c] = clone(points[far])
				labels[far] = c
				changed = true
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return KMeansResult{Labels: labels, Centroids: centroids, Inertia: inertia}
}

func renumber(res KMeansResult) KMeansResult {
	mapping := make(map[int]int)
	labels := make([]int, len(res.Labels))
	var centroids [][]float64
	for i, l := range res.Labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
			centroids = append(centroids, res.Centroids[l])
		}
		labels[i] = id
	}
	return KMeansResult{Labels: labels, Centroids: centroids, Inertia: res.Inertia}
}

// DistinctRows counts unique points; k-means cannot produce more non-empty
// clusters than this.
func DistinctRows(points [][]float64) int {
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		seen[fmt.Sprint(p)] = struct{}{}
	}
	return len(seen)
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func nearestDistance(p []float64, centroids [][]float64) float64 {
	return sqDist(p, centroids[nearest(p, centroids)])
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	far, farDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
