package benchmark

import (
	"math"
	"math/rand"

	"golang.org/x/xerrors"
)

// point is a (start,end) coverage pair
type point [2]float64

const kmeansMaxIterations = 100

// kmeans partitions points into k clusters and returns the cluster label of
// every point. The partition is deterministic for a given r, which keeps a
// round replayable from its seed. Fails when there are fewer points than
// clusters.
func kmeans(points []point, k int, r *rand.Rand) ([]int, error) {
	if k <= 0 {
		return nil, xerrors.New("cluster count must be positive")
	}
	if len(points) < k {
		return nil, xerrors.Errorf("cannot fit %d points into %d clusters", len(points), k)
	}

	centroids := make([]point, k)
	for i, idx := range r.Perm(len(points))[:k] {
		centroids[i] = points[idx]
	}

	labels := make([]int, len(points))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		moved := false
		for i, p := range points {
			label := nearest(centroids, p)
			if labels[i] != label {
				labels[i] = label
				moved = true
			}
		}

		if iter > 0 && !moved {
			break
		}

		// recompute centroids; a cluster that lost every point keeps its
		// previous centroid
		sums := make([]point, k)
		counts := make([]int, k)
		for i, p := range points {
			sums[labels[i]][0] += p[0]
			sums[labels[i]][1] += p[1]
			counts[labels[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			centroids[c][0] = sums[c][0] / float64(counts[c])
			centroids[c][1] = sums[c][1] / float64(counts[c])
		}
	}

	return labels, nil
}

func nearest(centroids []point, p point) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range centroids {
		dx := c[0] - p[0]
		dy := c[1] - p[1]
		dist := dx*dx + dy*dy
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	return best
}
