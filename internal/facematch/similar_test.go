package facematch

import (
	"context"
	"testing"

	"github.com/kozaktomas/photo-index/internal/database/mock"
)

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockIdentityStore()
	store.AddIdentity("alice", []float64{1, 0, 0}, []float64{0.98, 0.02, 0})
	store.AddIdentity("alice2", []float64{0.95, 0.05, 0})
	store.AddIdentity("bob", []float64{0, 1, 0})
	store.AddIdentity("carol", []float64{0, 0, 1})
	if err := store.SetDisplayName(ctx, "bob", "Bob"); err != nil {
		t.Fatal(err)
	}

	idx, err := BuildIndex(ctx, store, Euclidean)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if idx.Count() != 5 {
		t.Fatalf("index count = %d, want 5", idx.Count())
	}

	got, err := FindSimilar(ctx, store, idx, "alice", 2)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FindSimilar() returned %d identities, want 2: %+v", len(got), got)
	}
	if got[0].Key != "alice2" {
		t.Errorf("closest = %q, want alice2", got[0].Key)
	}
	for _, s := range got {
		if s.Key == "alice" {
			t.Error("the queried identity must not be listed")
		}
		if s.Key == "bob" && s.Name != "Bob" {
			t.Errorf("bob name = %q, want Bob", s.Name)
		}
	}
	if got[0].Distance > got[1].Distance {
		t.Errorf("results not sorted: %+v", got)
	}
}

func TestFindSimilar_OnlyIdentity(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockIdentityStore()
	store.AddIdentity("alone", []float64{1, 0})

	idx, err := BuildIndex(ctx, store, Cosine)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	got, err := FindSimilar(ctx, store, idx, "alone", 5)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FindSimilar() = %+v, want none", got)
	}
}

func TestFindSimilar_UnknownKey(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockIdentityStore()
	store.AddIdentity("a", []float64{1, 0})

	idx, _ := BuildIndex(ctx, store, Euclidean)
	if _, err := FindSimilar(ctx, store, idx, "missing", 5); err == nil {
		t.Error("expected error for unknown identity")
	}
}
