package facematch

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kozaktomas/photo-index/internal/database"
)

// MatchResult is the outcome of a nearest identity search.
type MatchResult struct {
	Key      string  // closest identity, empty if the store holds no embeddings
	Distance float64 // distance to the closest stored embedding
	Found    bool    // true if Distance is within the threshold
	Compared int     // number of stored embeddings compared
}

// Match runs an exhaustive nearest-neighbour search of candidate against every
// embedding of every identity in the store. The decision uses the single
// closest stored embedding across all identities. Ties on distance go to the
// lexicographically smallest identity key. The match is accepted when the
// minimum distance is <= threshold.
func Match(ctx context.Context, store database.IdentityReader, candidate []float64, metric Metric, threshold float64) (*MatchResult, error) {
	identities, err := store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	keys := make([]string, len(identities))
	for i, id := range identities {
		keys[i] = id.Key
	}
	sort.Strings(keys)

	result := &MatchResult{Distance: math.Inf(1)}
	for _, key := range keys {
		embeddings, err := store.ListEmbeddings(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to list embeddings of %s: %w", key, err)
		}
		for _, emb := range embeddings {
			d := metric.Distance(candidate, emb.Vector)
			result.Compared++
			// Strict comparison keeps the first (smallest) key on ties.
			if d < result.Distance {
				result.Distance = d
				result.Key = key
			}
		}
	}

	result.Found = result.Key != "" && result.Distance <= threshold
	return result, nil
}
