// Package filestore implements the embedding store as one folder per identity.
// Each folder is named after the identity key and holds embeddings as .npy
// files and face crops as .png files, each under a fresh random file name.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sbinet/npyio"

	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/database"
)

// Store is a filesystem-backed embedding store.
type Store struct {
	root string
}

var _ database.IdentityWriter = (*Store)(nil)

// Open opens the store rooted at dir, creating the folder if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("embedding store directory not set")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating embedding store directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureManifest checks that the store was built with the given model and
// metric, recording them on first use.
func (s *Store) EnsureManifest(model, metric string) (*database.StoreManifest, error) {
	path := filepath.Join(s.root, constants.ManifestFile)

	data, err := os.ReadFile(path) //nolint:gosec // path is under the configured data root
	switch {
	case err == nil:
		var m database.StoreManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
		}
		if m.Model != model || m.Metric != metric {
			return &m, fmt.Errorf("%w: store uses model=%s metric=%s, requested model=%s metric=%s",
				database.ErrManifestMismatch, m.Model, m.Metric, model, metric)
		}
		return &m, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := database.StoreManifest{
		Model:     model,
		Metric:    metric,
		CreatedAt: time.Now().UTC(),
		Version:   database.ManifestVersion,
	}
	data, err = json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeDurable(path, data); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return &m, nil
}

// ListIdentities returns all identity folders ordered by key.
func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading embedding store: %w", err)
	}

	identities := make([]database.Identity, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := s.readIdentity(entry.Name())
		if err != nil {
			return nil, err
		}
		identities = append(identities, *id)
	}
	return identities, nil
}

// GetIdentity returns a single identity.
func (s *Store) GetIdentity(ctx context.Context, key string) (*database.Identity, error) {
	if err := s.checkIdentity(key); err != nil {
		return nil, err
	}
	return s.readIdentity(key)
}

func (s *Store) readIdentity(key string) (*database.Identity, error) {
	files, err := s.listFiles(key, constants.EmbeddingExt)
	if err != nil {
		return nil, err
	}
	name, err := s.readName(key)
	if err != nil {
		return nil, err
	}
	return &database.Identity{Key: key, Name: name, Embeddings: len(files)}, nil
}

// ListEmbeddings loads every embedding of an identity ordered by file name.
func (s *Store) ListEmbeddings(ctx context.Context, key string) ([]database.StoredEmbedding, error) {
	if err := s.checkIdentity(key); err != nil {
		return nil, err
	}
	files, err := s.listFiles(key, constants.EmbeddingExt)
	if err != nil {
		return nil, err
	}

	embeddings := make([]database.StoredEmbedding, 0, len(files))
	for _, name := range files {
		vec, err := readVector(filepath.Join(s.root, key, name))
		if err != nil {
			return nil, fmt.Errorf("loading embedding %s/%s: %w", key, name, err)
		}
		embeddings = append(embeddings, database.StoredEmbedding{
			IdentityKey: key,
			Name:        name,
			Vector:      vec,
		})
	}
	return embeddings, nil
}

// ListCrops returns every face crop of an identity ordered by file name.
func (s *Store) ListCrops(ctx context.Context, key string) ([]database.StoredCrop, error) {
	if err := s.checkIdentity(key); err != nil {
		return nil, err
	}
	files, err := s.listFiles(key, constants.CropExt)
	if err != nil {
		return nil, err
	}

	crops := make([]database.StoredCrop, len(files))
	for i, name := range files {
		crops[i] = database.StoredCrop{
			IdentityKey: key,
			Name:        name,
			Path:        filepath.Join(s.root, key, name),
		}
	}
	return crops, nil
}

// CreateIdentity creates an empty folder under a fresh key.
func (s *Store) CreateIdentity(ctx context.Context) (string, error) {
	key := database.NewKey()
	if err := os.Mkdir(filepath.Join(s.root, key), 0o700); err != nil {
		return "", fmt.Errorf("creating identity folder: %w", err)
	}
	if err := syncDir(s.root); err != nil {
		return "", fmt.Errorf("syncing embedding store: %w", err)
	}
	return key, nil
}

// AddEmbedding writes the vector as .npy and the crop as .png, each under a
// fresh name. Files are synced before returning.
func (s *Store) AddEmbedding(ctx context.Context, key string, vector []float64, crop []byte) (*database.StoredEmbedding, error) {
	if err := s.checkIdentity(key); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := npyio.Write(&buf, vector); err != nil {
		return nil, fmt.Errorf("encoding embedding: %w", err)
	}

	name := database.NewKey() + constants.EmbeddingExt
	if err := writeNew(filepath.Join(s.root, key, name), buf.Bytes()); err != nil {
		return nil, fmt.Errorf("writing embedding: %w", err)
	}

	if len(crop) > 0 {
		cropName := database.NewKey() + constants.CropExt
		if err := writeNew(filepath.Join(s.root, key, cropName), crop); err != nil {
			return nil, fmt.Errorf("writing face crop: %w", err)
		}
	}

	stored := make([]float64, len(vector))
	copy(stored, vector)
	return &database.StoredEmbedding{IdentityKey: key, Name: name, Vector: stored}, nil
}

// SetDisplayName writes the identity's name file.
func (s *Store) SetDisplayName(ctx context.Context, key, name string) error {
	if err := s.checkIdentity(key); err != nil {
		return err
	}
	if err := writeDurable(filepath.Join(s.root, key, constants.NameFile), []byte(name+"\n")); err != nil {
		return fmt.Errorf("writing display name: %w", err)
	}
	return nil
}

func (s *Store) readName(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, key, constants.NameFile)) //nolint:gosec // path is under the store root
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading display name of %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// checkIdentity rejects keys that would escape the store and keys without a folder.
func (s *Store) checkIdentity(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: invalid key %q", database.ErrIdentityNotFound, key)
	}
	info, err := os.Stat(filepath.Join(s.root, key))
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return fmt.Errorf("%w: %s", database.ErrIdentityNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("checking identity %s: %w", key, err)
	}
	return nil
}

// listFiles returns file names with the given extension, sorted.
func (s *Store) listFiles(key, ext string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, key))
	if err != nil {
		return nil, fmt.Errorf("reading identity %s: %w", key, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ext) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readVector(path string) ([]float64, error) {
	f, err := os.Open(path) //nolint:gosec // path is under the store root
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vec []float64
	if err := npyio.Read(f, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// writeDurable writes data to path, replacing any previous content, and syncs it to disk.
func writeDurable(path string, data []byte) error {
	return writeSynced(path, data, os.O_TRUNC)
}

// writeNew is writeDurable for files that must not exist yet.
func writeNew(path string, data []byte) error {
	return writeSynced(path, data, os.O_EXCL)
}

func writeSynced(path string, data []byte, flag int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|flag, 0o600) //nolint:gosec // path is under the store root
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// the directory entry of a new file is only durable once its parent is synced
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // dir is under the store root
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}
