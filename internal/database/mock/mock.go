// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/photo-index/internal/database"
)

// MockIdentityStore is an in-memory implementation of database.IdentityWriter
type MockIdentityStore struct {
	mu         sync.RWMutex
	names      map[string]string
	embeddings map[string][]database.StoredEmbedding
	crops      map[string][]database.StoredCrop
	cropData   map[string][]byte
	nextKey    func() string

	// Error injection
	ListIdentitiesError error
	ListEmbeddingsError error
	CreateIdentityError error
	AddEmbeddingError   error
	SetNameError        error
}

var _ database.IdentityWriter = (*MockIdentityStore)(nil)

// NewMockIdentityStore creates a new empty mock identity store
func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{
		names:      make(map[string]string),
		embeddings: make(map[string][]database.StoredEmbedding),
		crops:      make(map[string][]database.StoredCrop),
		cropData:   make(map[string][]byte),
		nextKey:    database.NewKey,
	}
}

// SetKeyGenerator replaces the random key generator, for predictable keys in tests
func (m *MockIdentityStore) SetKeyGenerator(next func() string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextKey = next
}

// AddIdentity creates an identity with the given key and embeddings
func (m *MockIdentityStore) AddIdentity(key string, vectors ...[]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.embeddings[key]; !ok {
		m.embeddings[key] = nil
	}
	for _, v := range vectors {
		m.appendLocked(key, v, nil)
	}
}

// ListIdentities returns identities ordered by key
func (m *MockIdentityStore) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	if m.ListIdentitiesError != nil {
		return nil, m.ListIdentitiesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.embeddings))
	for k := range m.embeddings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]database.Identity, len(keys))
	for i, k := range keys {
		result[i] = database.Identity{Key: k, Name: m.names[k], Embeddings: len(m.embeddings[k])}
	}
	return result, nil
}

// GetIdentity returns one identity
func (m *MockIdentityStore) GetIdentity(ctx context.Context, key string) (*database.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	embs, ok := m.embeddings[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrIdentityNotFound, key)
	}
	return &database.Identity{Key: key, Name: m.names[key], Embeddings: len(embs)}, nil
}

// ListEmbeddings returns embeddings of an identity
func (m *MockIdentityStore) ListEmbeddings(ctx context.Context, key string) ([]database.StoredEmbedding, error) {
	if m.ListEmbeddingsError != nil {
		return nil, m.ListEmbeddingsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	embs, ok := m.embeddings[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrIdentityNotFound, key)
	}
	result := make([]database.StoredEmbedding, len(embs))
	copy(result, embs)
	return result, nil
}

// ListCrops returns crops of an identity
func (m *MockIdentityStore) ListCrops(ctx context.Context, key string) ([]database.StoredCrop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.embeddings[key]; !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrIdentityNotFound, key)
	}
	result := make([]database.StoredCrop, len(m.crops[key]))
	copy(result, m.crops[key])
	return result, nil
}

// CropData returns the raw bytes stored for a crop
func (m *MockIdentityStore) CropData(key, name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cropData[key+"/"+name]
}

// CreateIdentity creates a new empty identity
func (m *MockIdentityStore) CreateIdentity(ctx context.Context) (string, error) {
	if m.CreateIdentityError != nil {
		return "", m.CreateIdentityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.nextKey()
	if _, ok := m.embeddings[key]; ok {
		return "", fmt.Errorf("identity %s already exists", key)
	}
	m.embeddings[key] = nil
	return key, nil
}

// AddEmbedding appends an embedding and crop to an identity
func (m *MockIdentityStore) AddEmbedding(ctx context.Context, key string, vector []float64, crop []byte) (*database.StoredEmbedding, error) {
	if m.AddEmbeddingError != nil {
		return nil, m.AddEmbeddingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.embeddings[key]; !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrIdentityNotFound, key)
	}
	emb := m.appendLocked(key, vector, crop)
	return &emb, nil
}

func (m *MockIdentityStore) appendLocked(key string, vector []float64, crop []byte) database.StoredEmbedding {
	n := len(m.embeddings[key])
	stored := make([]float64, len(vector))
	copy(stored, vector)
	emb := database.StoredEmbedding{
		IdentityKey: key,
		Name:        fmt.Sprintf("%04d.npy", n),
		Vector:      stored,
	}
	m.embeddings[key] = append(m.embeddings[key], emb)
	if crop != nil {
		name := fmt.Sprintf("%04d.png", n)
		m.crops[key] = append(m.crops[key], database.StoredCrop{IdentityKey: key, Name: name})
		m.cropData[key+"/"+name] = crop
	}
	return emb
}

// SetDisplayName records an identity's name
func (m *MockIdentityStore) SetDisplayName(ctx context.Context, key, name string) error {
	if m.SetNameError != nil {
		return m.SetNameError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.embeddings[key]; !ok {
		return fmt.Errorf("%w: %s", database.ErrIdentityNotFound, key)
	}
	m.names[key] = name
	return nil
}

// IdentityCount returns the number of identities
func (m *MockIdentityStore) IdentityCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.embeddings)
}

// MockRecordIndex is an in-memory implementation of database.RecordWriter.
// Search matches records containing every query term as a whole token
// (case-insensitive) in any field; quotes around terms are ignored.
type MockRecordIndex struct {
	mu      sync.RWMutex
	records []database.Record

	// Error injection
	AddError    error
	SearchError error
	RenameError error
}

var _ database.RecordWriter = (*MockRecordIndex)(nil)

// NewMockRecordIndex creates a new empty mock index
func NewMockRecordIndex() *MockRecordIndex {
	return &MockRecordIndex{}
}

// Add inserts a record
func (m *MockRecordIndex) Add(ctx context.Context, rec database.Record) error {
	if m.AddError != nil {
		return m.AddError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ImagePath == rec.ImagePath {
			return fmt.Errorf("%w: %s", database.ErrDuplicateRecord, rec.ImagePath)
		}
	}
	rec.Faces = append([]string(nil), rec.Faces...)
	m.records = append(m.records, rec)
	return nil
}

// Search returns records matching all terms
func (m *MockRecordIndex) Search(ctx context.Context, match string) ([]database.Record, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	terms := strings.Fields(strings.ToLower(strings.ReplaceAll(match, `"`, "")))
	if len(terms) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Record
	for _, r := range m.records {
		tokens := make(map[string]bool)
		for _, f := range []string{r.ImagePath, r.FacesText(), r.Caption} {
			for _, tok := range strings.FieldsFunc(strings.ToLower(f), isSeparator) {
				tokens[tok] = true
			}
		}
		all := true
		for _, t := range terms {
			if !tokens[t] {
				all = false
				break
			}
		}
		if all {
			result = append(result, r)
		}
	}
	return result, nil
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '/' || r == '.' || r == '_' || r == '-'
}

// All returns every record
func (m *MockRecordIndex) All(ctx context.Context) ([]database.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.Record, len(m.records))
	copy(result, m.records)
	return result, nil
}

// Has checks if an image path is indexed
func (m *MockRecordIndex) Has(ctx context.Context, imagePath string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.ImagePath == imagePath {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of records
func (m *MockRecordIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// RenameIdentity replaces key tokens with name
func (m *MockRecordIndex) RenameIdentity(ctx context.Context, key, name string) (int, error) {
	if m.RenameError != nil {
		return 0, m.RenameError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for i := range m.records {
		changed := false
		for j, f := range m.records[i].Faces {
			if f == key {
				m.records[i].Faces[j] = name
				changed = true
			}
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}
