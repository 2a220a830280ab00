package database

import "errors"

var (
	// ErrDuplicateRecord is returned when an image path is already indexed
	ErrDuplicateRecord = errors.New("image already indexed")

	// ErrIdentityNotFound is returned when an identity key does not exist in the store
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIndexMissing is returned when the index is opened for reading before it was created
	ErrIndexMissing = errors.New("index does not exist, run `photo-index index <dir>` first")

	// ErrManifestMismatch is returned when an embedding store is reused with a different model or metric
	ErrManifestMismatch = errors.New("embedding store was built with a different model or distance metric")
)
