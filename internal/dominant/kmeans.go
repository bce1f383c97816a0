package dominant

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Clustering errors
var (
	ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")
	ErrNonFinite    = errors.New("kmeans: non-finite value")
)

// KMeans partitions points with Lloyd iterations from k-means++ seeds. The
// same Seed always produces the same result for the same input.
type KMeans struct {
	K         int
	Attempts  int
	MaxIter   int
	Seed      uint64
	Tolerance float64
}

// Clustering is the best attempt found by Fit.
type Clustering struct {
	Centroids [][]float64
	Labels    []int
	Counts    []int
	Inertia   float64
}

// Largest returns the index of the most populous cluster, lowest index on ties.
func (c *Clustering) Largest() int {
	best := 0
	for i, n := range c.Counts {
		if n > c.Counts[best] {
			best = i
		}
	}
	return best
}

// Fit clusters points, keeping the attempt with the lowest inertia.
func (km KMeans) Fit(points [][]float64) (*Clustering, error) {
	km = km.withDefaults()
	if len(points) < km.K {
		return nil, ErrTooFewPoints
	}
	for _, p := range points {
		if !finite(p) {
			return nil, ErrNonFinite
		}
	}

	tol := km.Tolerance * meanVariance(points)
	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))

	var best *Clustering
	for attempt := 0; attempt < km.Attempts; attempt++ {
		c := km.lloyd(points, km.seedCentroids(points, rng), tol)
		if best == nil || c.Inertia < best.Inertia {
			best = c
		}
	}

	for _, centroid := range best.Centroids {
		if !finite(centroid) {
			return nil, ErrNonFinite
		}
	}
	return best, nil
}

// seedCentroids picks initial centers with k-means++: each next center is
// drawn with probability proportional to its squared distance from the
// nearest center chosen so far.
func (km KMeans) seedCentroids(points [][]float64, rng *rand.Rand) [][]float64 {
	dim := len(points[0])
	centroids := make([][]float64, 0, km.K)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	scratch := make([]float64, dim)
	for i, p := range points {
		dist[i] = sqDist(scratch, p, centroids[0])
	}

	for len(centroids) < km.K {
		next := rng.IntN(len(points))
		if total := floats.Sum(dist); total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				if d == 0 {
					continue
				}
				next = i
				if target -= d; target <= 0 {
					break
				}
			}
		}
		c := clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			dist[i] = math.Min(dist[i], sqDist(scratch, p, c))
		}
	}
	return centroids
}

// lloyd alternates assignment and centroid update until the total centroid
// shift falls under tol or MaxIter is reached. Empty clusters keep their
// previous centroid.
func (km KMeans) lloyd(points, centroids [][]float64, tol float64) *Clustering {
	dim := len(points[0])
	labels := make([]int, len(points))
	counts := make([]int, km.K)
	sums := make([][]float64, km.K)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	scratch := make([]float64, dim)

	for iter := 0; iter < km.MaxIter; iter++ {
		changed := assign(points, centroids, labels, scratch)

		for c := range sums {
			floats.Scale(0, sums[c])
			counts[c] = 0
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			divide(sums[c], float64(counts[c]))
			shift += sqDist(scratch, sums[c], centroids[c])
			copy(centroids[c], sums[c])
		}

		if (iter > 0 && changed == 0) || shift <= tol {
			break
		}
	}

	// Final assignment against the settled centroids.
	assign(points, centroids, labels, scratch)
	for c := range counts {
		counts[c] = 0
	}
	inertia := 0.0
	for i, p := range points {
		counts[labels[i]]++
		inertia += sqDist(scratch, p, centroids[labels[i]])
	}

	return &Clustering{Centroids: centroids, Labels: labels, Counts: counts, Inertia: inertia}
}

// divide scales v by 1/n in place. Dividing keeps the centroid of identical
// points exact, which multiplying by a rounded reciprocal does not.
func divide(v []float64, n float64) {
	for i := range v {
		v[i] /= n
	}
}

// assign labels each point with its nearest centroid, lowest index on ties,
// and returns how many labels changed.
func assign(points, centroids [][]float64, labels []int, scratch []float64) int {
	changed := 0
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(scratch, p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed++
		}
	}
	return changed
}

func (km KMeans) withDefaults() KMeans {
	if km.K <= 0 {
		km.K = DefaultClusters
	}
	if km.Attempts <= 0 {
		km.Attempts = DefaultAttempts
	}
	if km.MaxIter <= 0 {
		km.MaxIter = DefaultMaxIter
	}
	if km.Tolerance <= 0 {
		km.Tolerance = DefaultTolerance
	}
	return km
}

func sqDist(scratch, a, b []float64) float64 {
	floats.SubTo(scratch, a, b)
	return floats.Dot(scratch, scratch)
}

// meanVariance is the mean over dimensions of the per-dimension variance.
func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	col := make([]float64, len(points))
	total := 0.0
	for d := 0; d < dim; d++ {
		for i, p := range points {
			col[i] = p[d]
		}
		if len(col) > 1 {
			total += stat.Variance(col, nil)
		}
	}
	return total / float64(dim)
}

func finite(p []float64) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
