// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Identity constants
const (
	// UnknownIdentity is the identity key recorded for images where no face
	// could be extracted. It never has a folder in the embedding store.
	UnknownIdentity = "unknown"
)

// Embedding store layout constants
const (
	// KnownEmbeddingsDir is the embedding store folder under the data root
	KnownEmbeddingsDir = "KNOWN_EMBEDDINGS"

	// EmbeddingExt is the file extension of stored embedding vectors
	EmbeddingExt = ".npy"

	// CropExt is the file extension of stored face crops
	CropExt = ".png"

	// NameFile holds the optional display name inside an identity folder
	NameFile = "name.txt"

	// ManifestFile records the model and metric an embedding store was built with
	ManifestFile = "manifest.json"
)

// Index constants
const (
	// IndexDBFile is the SQLite full-text index file under the data root
	IndexDBFile = "index.db"

	// DataDirName is the default data root under the user's home directory
	DataDirName = ".photo-index"
)

// Face extraction constants
const (
	// DefaultFaceModel is the face embedding model used when none is configured
	DefaultFaceModel = "Facenet512"

	// DefaultDistanceMetric is the metric used when none is configured
	DefaultDistanceMetric = "euclidean_l2"

	// DefaultFaceResize is the side of the square images are resized to before
	// extraction. Lower values run faster but miss small faces.
	DefaultFaceResize = 300
)

// Caption constants
const (
	// MaxCaptionImageSize is the maximum dimension (width or height) of an image sent for captioning
	MaxCaptionImageSize = 800

	// MaxCaptionTokens limits the length of generated captions
	MaxCaptionTokens = 40
)

// Similar identity constants
const (
	// DefaultSimilarLimit is the default number of neighbouring identities reported
	DefaultSimilarLimit = 5

	// HNSWSearchMultiplier is the factor to request more candidates from HNSW
	// since several neighbours usually belong to the queried identity itself.
	HNSWSearchMultiplier = 4
)
