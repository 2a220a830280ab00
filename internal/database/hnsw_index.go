package database

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW index parameters for face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100
)

// Neighbor is a stored embedding found near a query vector
type Neighbor struct {
	IdentityKey string
	Name        string
	Distance    float64
}

// HNSWIndex wraps an HNSW graph over stored face embeddings for approximate
// neighbour search. Node keys are "<identity>/<file name>".
type HNSWIndex struct {
	graph     *hnsw.Graph[string]
	distance  hnsw.DistanceFunc
	normalize bool
	dim       int
	nodes     map[string]StoredEmbedding
	mu        sync.RWMutex
}

// NewHNSWIndex creates an empty index using the given graph distance. When
// normalize is set, vectors are l2-normalized before insertion and search.
func NewHNSWIndex(distance hnsw.DistanceFunc, normalize bool) *HNSWIndex {
	return &HNSWIndex{
		distance:  distance,
		normalize: normalize,
		nodes:     make(map[string]StoredEmbedding),
	}
}

func (h *HNSWIndex) newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = h.distance
	return g
}

// Build replaces the index contents with the given embeddings. Embeddings whose
// dimension differs from the first one are skipped. Returns the number skipped.
func (h *HNSWIndex) Build(embeddings []StoredEmbedding) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.graph = nil
	h.dim = 0
	h.nodes = make(map[string]StoredEmbedding, len(embeddings))

	skipped := 0
	for _, emb := range embeddings {
		if !h.addLocked(emb) {
			skipped++
		}
	}
	return skipped
}

// Add inserts a single embedding. Returns false if it was skipped.
func (h *HNSWIndex) Add(emb StoredEmbedding) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addLocked(emb)
}

func (h *HNSWIndex) addLocked(emb StoredEmbedding) bool {
	vec := h.vector(emb.Vector)
	if vec == nil {
		return false
	}
	if h.dim == 0 {
		h.dim = len(vec)
	}
	if len(vec) != h.dim {
		return false
	}
	if h.graph == nil {
		h.graph = h.newGraph()
	}
	key := emb.IdentityKey + "/" + emb.Name
	h.graph.Add(hnsw.MakeNode(key, vec))
	h.nodes[key] = emb
	return true
}

// vector converts to the float32 graph representation, or nil if unusable.
func (h *HNSWIndex) vector(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}
	norm := 1.0
	if h.normalize {
		var sum float64
		for _, x := range v {
			sum += x * x
		}
		if sum == 0 {
			return nil
		}
		norm = math.Sqrt(sum)
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

// Search finds up to k stored embeddings nearest to the query, closest first.
func (h *HNSWIndex) Search(query []float64, k int) ([]Neighbor, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil || h.graph.Len() == 0 {
		return nil, errors.New("index not initialized")
	}
	vec := h.vector(query)
	if vec == nil || len(vec) != h.dim {
		return nil, errors.New("query vector does not match index dimension")
	}

	nodes := h.graph.Search(vec, k)
	result := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		emb, ok := h.nodes[n.Key]
		if !ok {
			continue
		}
		result = append(result, Neighbor{
			IdentityKey: emb.IdentityKey,
			Name:        emb.Name,
			Distance:    float64(h.distance(vec, n.Value)),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})
	return result, nil
}

// Count returns the number of indexed embeddings.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}
