package database

import (
	"context"
)

// IdentityReader provides read-only access to the embedding store
type IdentityReader interface {
	// ListIdentities returns all known identities ordered by key
	ListIdentities(ctx context.Context) ([]Identity, error)
	// GetIdentity returns a single identity, or ErrIdentityNotFound
	GetIdentity(ctx context.Context, key string) (*Identity, error)
	// ListEmbeddings returns every embedding stored under an identity ordered by file name
	ListEmbeddings(ctx context.Context, key string) ([]StoredEmbedding, error)
	// ListCrops returns the face crops stored under an identity ordered by file name
	ListCrops(ctx context.Context, key string) ([]StoredCrop, error)
}

// IdentityWriter provides write access to the embedding store
type IdentityWriter interface {
	IdentityReader

	// CreateIdentity creates a new, empty identity and returns its key
	CreateIdentity(ctx context.Context) (string, error)
	// AddEmbedding persists an embedding and its face crop under an identity.
	// Both are durable when the call returns.
	AddEmbedding(ctx context.Context, key string, vector []float64, crop []byte) (*StoredEmbedding, error)
	// SetDisplayName records the human-assigned name of an identity
	SetDisplayName(ctx context.Context, key, name string) error
}

// RecordReader provides read-only access to the full-text photo index
type RecordReader interface {
	// Search runs a full-text MATCH query over path, faces and caption
	Search(ctx context.Context, match string) ([]Record, error)
	// All returns every record in the index
	All(ctx context.Context) ([]Record, error)
	// Has checks if a record exists for the given image path
	Has(ctx context.Context, imagePath string) (bool, error)
	// Count returns the total number of records
	Count(ctx context.Context) (int, error)
}

// RecordWriter provides write access to the full-text photo index
type RecordWriter interface {
	RecordReader

	// Add inserts a record. Returns ErrDuplicateRecord if the image path is already indexed.
	Add(ctx context.Context, rec Record) error
	// RenameIdentity replaces the identity key token with a display name in every
	// record referencing it. Returns the number of records whose text changed.
	RenameIdentity(ctx context.Context, key, name string) (int, error)
}
