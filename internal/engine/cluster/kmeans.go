// Package cluster implements the k-means engine that partitions hosts by
// their per-interval SYN-count vectors, separating an attack cluster from
// normal traffic.
package cluster

import (
	"errors"
	"math"
)

// ErrDegenerate is returned when clustering cannot run: fewer input vectors
// than clusters. The caller skips that window's classification.
var ErrDegenerate = errors.New("cluster: fewer vectors than clusters")

// NoAttack is the attack-cluster id when no cluster qualifies as an attack.
const NoAttack = -1

// Unclassified is the cluster id of a host no classification pass has
// touched yet, or whose window was skipped.
const Unclassified = -1

// Result holds the outcome of one clustering pass.
type Result struct {
	// Assignments[i] is the cluster of input vector i.
	Assignments []int
	// Distances[i] is the squared distance of vector i to its centroid.
	Distances []float64
	// Centroids[c] is the final mean vector of cluster c.
	Centroids [][]float64
	// Sizes[c] is the member count of cluster c.
	Sizes []int
	// Deviations[c] is the sum of squared deviations of cluster c from its
	// final centroid.
	Deviations []float64
	// Attack is the id of the attack cluster, or NoAttack.
	Attack int
	// Converged reports whether assignments stabilized before the
	// iteration bound.
	Converged bool
}

// IsAttacker reports whether vector i belongs to the attack cluster.
func (r *Result) IsAttacker(i int) bool {
	return r.Attack != NoAttack && r.Assignments[i] == r.Attack
}

// Classify runs k-means over the given vectors. All vectors must share the
// same length. Seeding is deterministic: centroid 0 is the zero vector (the
// no-attack baseline), centroid 1 is the vector with the largest coordinate
// sum, and any further centroid is the vector farthest from its nearest
// already-chosen centroid. Identical inputs therefore always produce
// identical results.
//
// minObs is the minimum member count for a cluster to be considered normal
// traffic; a cluster below it is designated the attack cluster. When every
// cluster meets minObs, the attack cluster is the one whose mean per-member
// deviation is at least twice that of the next highest; if none stands out,
// the window has no attack cluster.
func Classify(vectors [][]float64, k, minObs, maxIter int) (*Result, error) {
	if k < 1 {
		return nil, errors.New("cluster: k must be at least 1")
	}
	if len(vectors) < k {
		return nil, ErrDegenerate
	}
	dim := len(vectors[0])

	centroids := seed(vectors, k, dim)

	assignments := make([]int, len(vectors))
	distances := make([]float64, len(vectors))
	sizes := make([]int, k)

	converged := false
	for iter := 0; iter < maxIter; iter++ {
		changed := 0
		for i, v := range vectors {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := sqDist(v, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best || iter == 0 {
				changed++
			}
			assignments[i] = best
			distances[i] = bestDist
		}
		if changed == 0 {
			converged = true
			break
		}

		// Recompute centroids as member means. An empty cluster keeps its
		// previous centroid so the mean stays defined.
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for c := range sizes {
			sizes[c] = 0
		}
		for i, v := range vectors {
			c := assignments[i]
			sizes[c]++
			for j, x := range v {
				sums[c][j] += x
			}
		}
		for c := range centroids {
			if sizes[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(sizes[c])
			}
		}
	}

	// Final sizes, distances and per-cluster deviations against the final
	// centroids.
	for c := range sizes {
		sizes[c] = 0
	}
	deviations := make([]float64, k)
	for i, v := range vectors {
		c := assignments[i]
		sizes[c]++
		distances[i] = sqDist(v, centroids[c])
		deviations[c] += distances[i]
	}

	res := &Result{
		Assignments: assignments,
		Distances:   distances,
		Centroids:   centroids,
		Sizes:       sizes,
		Deviations:  deviations,
		Converged:   converged,
	}
	res.Attack = pickAttack(sizes, deviations, minObs)
	return res, nil
}

func seed(vectors [][]float64, k, dim int) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, make([]float64, dim))

	if k > 1 {
		best, bestSum := 0, -1.0
		for i, v := range vectors {
			sum := 0.0
			for _, x := range v {
				sum += x
			}
			if sum > bestSum {
				best, bestSum = i, sum
			}
		}
		centroids = append(centroids, append([]float64(nil), vectors[best]...))
	}

	for len(centroids) < k {
		best, bestDist := 0, -1.0
		for i, v := range vectors {
			nearest := math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(v, c); d < nearest {
					nearest = d
				}
			}
			if nearest > bestDist {
				best, bestDist = i, nearest
			}
		}
		centroids = append(centroids, append([]float64(nil), vectors[best]...))
	}
	return centroids
}

func pickAttack(sizes []int, deviations []float64, minObs int) int {
	// A cluster too small to be believable as normal traffic is the attack
	// cluster; among several, take the smallest (ties to the lower index).
	attack, attackSize := NoAttack, math.MaxInt
	for c, size := range sizes {
		if size > 0 && size < minObs && size < attackSize {
			attack, attackSize = c, size
		}
	}
	if attack != NoAttack {
		return attack
	}

	// Otherwise look for a cluster with markedly higher mean deviation.
	// With a single cluster there is nothing to stand out against.
	if len(sizes) < 2 {
		return NoAttack
	}
	means := make([]float64, len(sizes))
	for c := range sizes {
		if sizes[c] > 0 {
			means[c] = deviations[c] / float64(sizes[c])
		}
	}
	top, second := NoAttack, 0.0
	for c, m := range means {
		if top == NoAttack || m > means[top] {
			if top != NoAttack {
				second = math.Max(second, means[top])
			}
			top = c
		} else if m > second {
			second = m
		}
	}
	if top != NoAttack && sizes[top] > 0 && means[top] >= 2*second && means[top] > 0 {
		return top
	}
	return NoAttack
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
