package facematch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kozaktomas/photo-index/internal/database/mock"
)

func TestMatch(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockIdentityStore()
	store.AddIdentity("aaa", []float64{1, 0, 0})
	store.AddIdentity("bbb", []float64{0, 1, 0})

	tests := []struct {
		name      string
		candidate []float64
		wantKey   string
		wantFound bool
	}{
		{"close to aaa", []float64{1, 0, 0.05}, "aaa", true},
		{"exact bbb", []float64{0, 1, 0}, "bbb", true},
		{"far from both", []float64{0, 0, 1}, "aaa", false},
		{"wrong dimension", []float64{1, 0}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(ctx, store, tt.candidate, Euclidean, 0.1)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v (distance %v)", got.Found, tt.wantFound, got.Distance)
			}
			if got.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", got.Key, tt.wantKey)
			}
			if got.Compared != 2 {
				t.Errorf("Compared = %d, want 2", got.Compared)
			}
		})
	}
}

func TestMatch_ThresholdIsInclusive(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.AddIdentity("aaa", []float64{0, 0})

	got, err := Match(context.Background(), store, []float64{3, 4}, Euclidean, 5)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !got.Found || got.Distance != 5 {
		t.Errorf("Match() = %+v, want found at distance 5", got)
	}
}

func TestMatch_GlobalMinimumAcrossIdentities(t *testing.T) {
	// zzz has the single closest embedding even though aaa has more close ones
	store := mock.NewMockIdentityStore()
	store.AddIdentity("aaa", []float64{0.2, 0}, []float64{0.21, 0}, []float64{0.22, 0})
	store.AddIdentity("zzz", []float64{0.01, 0}, []float64{5, 5})

	got, err := Match(context.Background(), store, []float64{0, 0}, Euclidean, 1)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got.Key != "zzz" {
		t.Errorf("Key = %q, want zzz", got.Key)
	}
	if got.Compared != 5 {
		t.Errorf("Compared = %d, want 5", got.Compared)
	}
}

func TestMatch_TieGoesToSmallestKey(t *testing.T) {
	store := mock.NewMockIdentityStore()
	// inserted out of order, both exactly 1 away from the candidate
	store.AddIdentity("c-key", []float64{0, 1})
	store.AddIdentity("a-key", []float64{1, 0})
	store.AddIdentity("b-key", []float64{-1, 0})

	for range 10 {
		got, err := Match(context.Background(), store, []float64{0, 0}, Euclidean, 2)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if got.Key != "a-key" {
			t.Fatalf("Key = %q, want a-key", got.Key)
		}
	}
}

func TestMatch_EmptyStore(t *testing.T) {
	got, err := Match(context.Background(), mock.NewMockIdentityStore(), []float64{1, 2}, Cosine, 0.5)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got.Found || got.Key != "" || !math.IsInf(got.Distance, 1) || got.Compared != 0 {
		t.Errorf("Match() on empty store = %+v", got)
	}
}

func TestMatch_IdentityWithoutEmbeddings(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.AddIdentity("empty")

	got, err := Match(context.Background(), store, []float64{1, 2}, Euclidean, 100)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got.Found {
		t.Errorf("an identity without embeddings must not match: %+v", got)
	}
}

func TestMatch_StoreErrors(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.AddIdentity("aaa", []float64{1})
	store.ListEmbeddingsError = errors.New("read failed")

	if _, err := Match(context.Background(), store, []float64{1}, Euclidean, 1); err == nil {
		t.Error("expected error from ListEmbeddings")
	}

	store = mock.NewMockIdentityStore()
	store.ListIdentitiesError = errors.New("read failed")
	if _, err := Match(context.Background(), store, []float64{1}, Euclidean, 1); err == nil {
		t.Error("expected error from ListIdentities")
	}
}
