package embed

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dot := floats.Dot(a, b)
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

// KMeans runs Lloyd's algorithm with deterministic seeding (evenly spaced
// initial centroids) and returns the cluster assignment per vector. When
// there are fewer vectors than clusters, each vector is its own cluster.
func KMeans(vectors [][]float64, k int, iterations int) []int {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if iterations <= 0 {
		iterations = 20
	}
	dim := len(vectors[0])

	centroids := make([][]float64, k)
	for i := range centroids {
		centroids[i] = append([]float64(nil), vectors[i*n/k]...)
	}

	assign := make([]int, n)
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				d := floats.Distance(v, centroid, 2)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			floats.Add(sums[assign[i]], v)
			counts[assign[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}
	return assign
}

// ClusterRepresentatives picks, for each cluster, the index of the vector
// closest to its centroid, returned in cluster order. Empty clusters are
// skipped, so at most k indices come back.
func ClusterRepresentatives(vectors [][]float64, k int) []int {
	assign := KMeans(vectors, k, 20)
	if assign == nil {
		return nil
	}
	if k > len(vectors) {
		k = len(vectors)
	}
	dim := len(vectors[0])

	counts := make([]int, k)
	centroids := make([][]float64, k)
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		floats.Add(centroids[assign[i]], v)
		counts[assign[i]]++
	}
	for c := range centroids {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), centroids[c])
		}
	}

	reps := make([]int, 0, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		best, bestDist := -1, math.Inf(1)
		for i, v := range vectors {
			if assign[i] != c {
				continue
			}
			if d := floats.Distance(v, centroids[c], 2); d < bestDist {
				best, bestDist = i, d
			}
		}
		reps = append(reps, best)
	}
	return reps
}
