package facematch

import (
	"context"
	"fmt"
	"sort"

	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/logger"
)

// SimilarIdentity is another identity close to the one searched for.
type SimilarIdentity struct {
	Key      string
	Name     string
	Distance float64 // smallest distance between any pair of their faces
	Faces    int     // faces of this identity within the search results
}

// BuildIndex loads every stored embedding into an HNSW index using the
// graph distance matching metric.
func BuildIndex(ctx context.Context, store database.IdentityReader, metric Metric) (*database.HNSWIndex, error) {
	identities, err := store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	var all []database.StoredEmbedding
	for _, id := range identities {
		embs, err := store.ListEmbeddings(ctx, id.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load embeddings of %s: %w", id.Key, err)
		}
		all = append(all, embs...)
	}

	distance, normalize := metric.HNSWDistance()
	idx := database.NewHNSWIndex(distance, normalize)
	if skipped := idx.Build(all); skipped > 0 {
		logger.Warn("skipped %d embeddings with a mismatched dimension", skipped)
	}
	return idx, nil
}

// FindSimilar returns the identities whose faces are nearest to the faces of
// key, closest first, at most limit of them. Distances come from an
// approximate index and are meant for review, not for assignment.
func FindSimilar(ctx context.Context, store database.IdentityReader, idx *database.HNSWIndex, key string, limit int) ([]SimilarIdentity, error) {
	if limit <= 0 {
		limit = constants.DefaultSimilarLimit
	}

	own, err := store.ListEmbeddings(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(own) == 0 || idx.Count() <= len(own) {
		return nil, nil
	}

	// own faces always come back first, ask for enough to see past them
	k := len(own) + limit*constants.HNSWSearchMultiplier
	if k > idx.Count() {
		k = idx.Count()
	}

	best := make(map[string]*SimilarIdentity)
	for _, emb := range own {
		neighbors, err := idx.Search(emb.Vector, k)
		if err != nil {
			return nil, fmt.Errorf("failed to search near %s/%s: %w", key, emb.Name, err)
		}
		for _, n := range neighbors {
			if n.IdentityKey == key {
				continue
			}
			s, ok := best[n.IdentityKey]
			if !ok {
				s = &SimilarIdentity{Key: n.IdentityKey, Distance: n.Distance}
				best[n.IdentityKey] = s
			}
			if n.Distance < s.Distance {
				s.Distance = n.Distance
			}
			s.Faces++
		}
	}

	result := make([]SimilarIdentity, 0, len(best))
	for _, s := range best {
		if id, err := store.GetIdentity(ctx, s.Key); err == nil {
			s.Name = id.Name
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Distance != result[j].Distance {
			return result[i].Distance < result[j].Distance
		}
		return result[i].Key < result[j].Key
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
