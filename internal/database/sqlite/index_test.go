package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/photo-index/internal/database"
)

// setupTestIndex creates a temporary SQLite index for testing.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	require.NotNil(t, idx)

	t.Cleanup(func() {
		assert.NoError(t, idx.Close())
	})
	return idx
}

func addRecords(t *testing.T, idx *Index, records ...database.Record) {
	t.Helper()
	for _, rec := range records {
		require.NoError(t, idx.Add(context.Background(), rec))
	}
}

func paths(records []database.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ImagePath
	}
	return out
}

func TestOpen_CreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	idx, err := Open(path)
	require.NoError(t, err)
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"unknown"}, Caption: "a tree"})
	require.NoError(t, idx.Close())

	// reopening must keep data and not rerun migrations
	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, path, idx.Path())
}

func TestOpenExisting_Missing(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "index.db"))
	assert.ErrorIs(t, err, database.ErrIndexMissing)
}

func TestOpenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = OpenExisting(path)
	require.NoError(t, err)
	assert.NoError(t, idx.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAdd_Duplicate(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k1"}, Caption: "first"})

	err := idx.Add(ctx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k2"}, Caption: "second"})
	assert.ErrorIs(t, err, database.ErrDuplicateRecord)

	all, err := idx.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "first", all[0].Caption, "prior record is retained")
	assert.Equal(t, []string{"k1"}, all[0].Faces)
}

func TestHas(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"unknown"}})

	has, err := idx.Has(ctx, "/p/a.jpg")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = idx.Has(ctx, "/p/b.jpg")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSearch(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx,
		database.Record{ImagePath: "/photos/2023/beach.jpg", Faces: []string{"k1", "k2"}, Caption: "two people on a beach"},
		database.Record{ImagePath: "/photos/2023/park.jpg", Faces: []string{"k1"}, Caption: "a man with a dog"},
		database.Record{ImagePath: "/photos/2024/tree.jpg", Faces: []string{"unknown"}, Caption: "a tree in a field"},
	)

	tests := []struct {
		name  string
		match string
		want  []string
	}{
		{"by caption", `"dog"`, []string{"/photos/2023/park.jpg"}},
		{"by face key", `"k1"`, []string{"/photos/2023/beach.jpg", "/photos/2023/park.jpg"}},
		{"all terms required", `"k1" "beach"`, []string{"/photos/2023/beach.jpg"}},
		{"by path", `"2024"`, []string{"/photos/2024/tree.jpg"}},
		{"unknown sentinel", `"unknown"`, []string{"/photos/2024/tree.jpg"}},
		{"no match", `"volcano"`, nil},
		{"empty query", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Search(ctx, tt.match)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, paths(got))
		})
	}
}

func TestRenameIdentity(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx,
		database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k1", "k2", "k3"}, Caption: "group"},
		database.Record{ImagePath: "/p/b.jpg", Faces: []string{"k2", "k2"}, Caption: "mirror"},
		database.Record{ImagePath: "/p/c.jpg", Faces: []string{"k1"}, Caption: "portrait"},
	)

	n, err := idx.RenameIdentity(ctx, "k2", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := idx.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "k1 Bob k3", all[0].FacesText())
	assert.Equal(t, "Bob Bob", all[1].FacesText())
	assert.Equal(t, "k1", all[2].FacesText())

	got, err := idx.Search(ctx, `"bob"`)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/p/a.jpg", "/p/b.jpg"}, paths(got))

	got, err = idx.Search(ctx, `"k2"`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRenameIdentity_Idempotent(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k1", "k2"}})

	n, err := idx.RenameIdentity(ctx, "k1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	before, err := idx.All(ctx)
	require.NoError(t, err)

	n, err = idx.RenameIdentity(ctx, "k1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	after, err := idx.All(ctx)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestRenameIdentity_Again(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k1", "k2"}})

	_, err := idx.RenameIdentity(ctx, "k1", "Alice")
	require.NoError(t, err)
	n, err := idx.RenameIdentity(ctx, "k1", "Alicia")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := idx.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alicia k2", all[0].FacesText())
}

func TestRenameIdentity_OnlyExactToken(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k1", "k10"}})

	_, err := idx.RenameIdentity(ctx, "k1", "Alice")
	require.NoError(t, err)

	all, err := idx.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice k10", all[0].FacesText())
}

func TestAdd_UsesKnownNames(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	addRecords(t, idx, database.Record{ImagePath: "/p/a.jpg", Faces: []string{"k1"}})
	_, err := idx.RenameIdentity(ctx, "k1", "Alice")
	require.NoError(t, err)

	// a later run assigns the same identity to a new photo
	addRecords(t, idx, database.Record{ImagePath: "/p/b.jpg", Faces: []string{"k1", "k9"}})

	got, err := idx.Search(ctx, `"alice"`)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/p/a.jpg", "/p/b.jpg"}, paths(got))
}

func TestRenameIdentity_NoRecords(t *testing.T) {
	idx := setupTestIndex(t)

	n, err := idx.RenameIdentity(context.Background(), "nobody", "Zed")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
