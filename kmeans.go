package revlens

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	kmeansMaxIterations = 100
	kmeansTolerance     = 1e-4
)

// KMeansResult holds per-row cluster labels and the final centroids.
type KMeansResult struct {
	K         int
	Labels    []int
	Centroids *mat.Dense
}

// RunKMeans partitions matrix rows into k clusters using cosine distance
// with k-means++ seeding. All randomness comes from the seed, so the same
// seed and row order always produce the same labels and centroids. When the
// matrix has fewer rows than k, k is reduced to the row count.
func RunKMeans(values *mat.Dense, k int, seed int64) (*KMeansResult, error) {
	rows, _ := values.Dims()
	if k < 1 {
		return nil, &ConfigurationError{Parameter: "n_clusters", Value: k, Reason: "must be at least 1"}
	}
	if rows == 0 {
		return nil, &InsufficientDataError{Distinct: 0, Minimum: 1, Reason: "no rows to cluster"}
	}
	if k > rows {
		k = rows
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := initializeCentroids(values, k, rng)

	labels := make([]int, rows)
	for i := range labels {
		labels[i] = -1
	}
	for range kmeansMaxIterations {
		next := assignRows(values, centroids)
		stable := equalLabels(labels, next)
		labels = next
		moved := updateCentroids(values, labels, centroids)
		if stable || moved < kmeansTolerance {
			break
		}
	}

	return &KMeansResult{K: k, Labels: labels, Centroids: centroids}, nil
}

// initializeCentroids picks the first centroid uniformly and the rest with
// probability proportional to the squared distance from the nearest chosen
// centroid.
func initializeCentroids(values *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	rows, cols := values.Dims()
	centroids := mat.NewDense(k, cols, nil)
	centroids.SetRow(0, values.RawRowView(rng.Intn(rows)))

	weights := make([]float64, rows)
	for c := 1; c < k; c++ {
		var total float64
		for i := range rows {
			nearest := math.Inf(1)
			for j := range c {
				if d := cosineDistance(values.RawRowView(i), centroids.RawRowView(j)); d < nearest {
					nearest = d
				}
			}
			weights[i] = nearest * nearest
			total += weights[i]
		}
		row := rows - 1
		if total == 0 {
			row = rng.Intn(rows)
		} else {
			target := rng.Float64() * total
			var cumulative float64
			for i, weight := range weights {
				cumulative += weight
				if cumulative >= target {
					row = i
					break
				}
			}
		}
		centroids.SetRow(c, values.RawRowView(row))
	}
	return centroids
}

// assignRows labels every row with its nearest centroid; the lowest index
// wins ties.
func assignRows(values, centroids *mat.Dense) []int {
	rows, _ := values.Dims()
	k, _ := centroids.Dims()
	labels := make([]int, rows)
	for i := range rows {
		best := 0
		bestDist := math.Inf(1)
		for c := range k {
			if d := cosineDistance(values.RawRowView(i), centroids.RawRowView(c)); d < bestDist {
				bestDist = d
				best = c
			}
		}
		labels[i] = best
	}
	return labels
}

// updateCentroids recomputes centroids as member means and returns the
// largest centroid movement. Empty clusters keep their previous centroid.
func updateCentroids(values *mat.Dense, labels []int, centroids *mat.Dense) float64 {
	rows, cols := values.Dims()
	k, _ := centroids.Dims()
	sums := mat.NewDense(k, cols, nil)
	counts := make([]int, k)
	for i := range rows {
		c := labels[i]
		counts[c]++
		row := values.RawRowView(i)
		for j, v := range row {
			sums.Set(c, j, sums.At(c, j)+v)
		}
	}

	var maxMove float64
	for c := range k {
		if counts[c] == 0 {
			continue
		}
		var move float64
		for j := range cols {
			mean := sums.At(c, j) / float64(counts[c])
			diff := mean - centroids.At(c, j)
			move += diff * diff
			centroids.Set(c, j, mean)
		}
		if m := math.Sqrt(move); m > maxMove {
			maxMove = m
		}
	}
	return maxMove
}

func equalLabels(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// silhouetteScore measures clustering quality in [-1, 1]: the mean over all
// rows of (b-a)/max(a,b), where a is the mean distance to the row's own
// cluster and b the mean distance to the nearest other cluster.
func silhouetteScore(values *mat.Dense, labels []int, k int) float64 {
	rows, _ := values.Dims()
	if rows < 2 || k < 2 {
		return 0
	}
	members := make([][]int, k)
	for i, label := range labels {
		members[label] = append(members[label], i)
	}

	var total float64
	counted := 0
	for i := range rows {
		own := labels[i]
		if len(members[own]) < 2 {
			continue
		}
		a := meanDistance(values, i, members[own])
		b := math.Inf(1)
		for c := range k {
			if c == own || len(members[c]) == 0 {
				continue
			}
			if d := meanDistance(values, i, members[c]); d < b {
				b = d
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

func meanDistance(values *mat.Dense, row int, members []int) float64 {
	var sum float64
	count := 0
	for _, other := range members {
		if other == row {
			continue
		}
		sum += cosineDistance(values.RawRowView(row), values.RawRowView(other))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func cosineDistance(a, b []float64) float64 {
	return 1 - cosineSimilarity(a, b)
}
