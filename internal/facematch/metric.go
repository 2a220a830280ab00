package facematch

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/coder/hnsw"
)

// ErrUnsupportedMetric is returned when a distance metric name is not recognised.
var ErrUnsupportedMetric = errors.New("unsupported distance metric")

// Metric identifies a distance function between two embeddings.
type Metric string

const (
	Cosine      Metric = "cosine"
	Euclidean   Metric = "euclidean"
	EuclideanL2 Metric = "euclidean_l2" // euclidean distance of l2-normalized vectors
)

// Metrics lists all supported metrics in display order.
var Metrics = []Metric{Cosine, Euclidean, EuclideanL2}

// ParseMetric validates a metric name. Matching is case-insensitive.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of cosine, euclidean, euclidean_l2)", ErrUnsupportedMetric, name)
}

func (m Metric) String() string {
	return string(m)
}

// Distance computes the distance between a and b. Vectors of different length,
// empty vectors and zero vectors (for the normalizing metrics) are infinitely
// far apart so they can never match.
func (m Metric) Distance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	switch m {
	case Cosine:
		return CosineDistance(a, b)
	case Euclidean:
		return EuclideanDistance(a, b)
	case EuclideanL2:
		na, nb := L2Normalize(a), L2Normalize(b)
		if na == nil || nb == nil {
			return math.Inf(1)
		}
		return EuclideanDistance(na, nb)
	default:
		return math.Inf(1)
	}
}

// HNSWDistance returns the hnsw distance function matching the metric and
// whether vectors must be l2-normalized before being added to the graph.
func (m Metric) HNSWDistance() (hnsw.DistanceFunc, bool) {
	switch m {
	case Cosine:
		return hnsw.CosineDistance, false
	case EuclideanL2:
		return hnsw.EuclideanDistance, true
	default:
		return hnsw.EuclideanDistance, false
	}
}

// CosineDistance computes 1 - cosine similarity.
// Returns a value between 0 (same direction) and 2 (opposite).
func CosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return math.Inf(1)
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}

// EuclideanDistance computes the L2 distance between a and b.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// L2Normalize returns v scaled to unit length, or nil for a zero vector.
func L2Normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
