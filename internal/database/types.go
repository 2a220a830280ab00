package database

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is a cluster of embeddings believed to belong to one person
type Identity struct {
	Key        string
	Name       string // human-assigned display name, empty until relabeled
	Embeddings int    // number of stored embeddings
}

// DisplayName returns the name if set, the key otherwise
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Key
}

// StoredEmbedding is one embedding vector persisted under an identity
type StoredEmbedding struct {
	IdentityKey string
	Name        string // unique file name within the identity
	Vector      []float64
}

// StoredCrop is one face crop persisted under an identity
type StoredCrop struct {
	IdentityKey string
	Name        string
	Path        string // location on disk, empty for in-memory stores
}

// Record is one indexed image
type Record struct {
	ImagePath string
	Faces     []string // identity keys or display names, one per detected face, may repeat
	Caption   string
}

// FacesText returns the space-separated faces field as stored in the index
func (r Record) FacesText() string {
	return strings.Join(r.Faces, " ")
}

// StoreManifest records what an embedding store was built with.
// Embeddings from different models or metrics are not comparable.
type StoreManifest struct {
	Model     string    `json:"model"`
	Metric    string    `json:"metric"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// ManifestVersion is the manifest version written by this build
const ManifestVersion = 1

// NewKey returns a fresh random identifier (32 hex chars) used for identity
// keys and stored file names.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
