// Package relabel gives identities human-readable names after indexing.
package relabel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/logger"
)

var (
	// ErrSentinelRename is returned when renaming the "unknown" placeholder
	ErrSentinelRename = fmt.Errorf("the %q placeholder cannot be renamed", constants.UnknownIdentity)
	// ErrEmptyName is returned for a blank display name
	ErrEmptyName = errors.New("display name must not be empty")
	// ErrInvalidName is returned for names that would split into several tokens
	ErrInvalidName = errors.New("display name must be a single word")
)

type Relabeler struct {
	index database.RecordWriter
	store database.IdentityWriter // optional
}

// New creates a relabeler. store may be nil, then only index records change.
func New(index database.RecordWriter, store database.IdentityWriter) *Relabeler {
	return &Relabeler{index: index, store: store}
}

// ValidateName trims name and checks it can stand in for an identity key.
// Names are stored as single tokens in the faces field, so whitespace inside
// a name is rejected rather than silently splitting it.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return "", ErrInvalidName
	}
	if name == constants.UnknownIdentity {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return name, nil
}

// Rename replaces identity key with name in every index record and records
// the name next to the identity's embeddings. It returns the number of
// records whose text changed, so repeating a rename returns 0.
func (r *Relabeler) Rename(ctx context.Context, key, name string) (int, error) {
	key = strings.TrimSpace(key)
	if key == constants.UnknownIdentity {
		return 0, ErrSentinelRename
	}
	name, err := ValidateName(name)
	if err != nil {
		return 0, err
	}

	if r.store != nil {
		if err := r.store.SetDisplayName(ctx, key, name); err != nil {
			if !errors.Is(err, database.ErrIdentityNotFound) {
				return 0, fmt.Errorf("failed to save display name: %w", err)
			}
			logger.Warn("identity %s has no folder in the embedding store, renaming index records only", key)
		}
	}

	updated, err := r.index.RenameIdentity(ctx, key, name)
	if err != nil {
		return 0, fmt.Errorf("failed to rename %s: %w", key, err)
	}
	logger.Info("renamed %s to %s in %d records", key, name, updated)
	return updated, nil
}
