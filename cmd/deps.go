package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/database/filestore"
	"github.com/kozaktomas/photo-index/internal/database/sqlite"
	"github.com/kozaktomas/photo-index/internal/facematch"
)

// faceDeps holds the embedding store opened for a fixed model and metric.
type faceDeps struct {
	store     *filestore.Store
	metric    facematch.Metric
	threshold float64
}

// openFaceStore resolves the face settings and opens the embedding store,
// refusing a store that was built with a different model or metric.
func openFaceStore(cfg *config.Config) (*faceDeps, error) {
	metric, threshold, err := cfg.ResolveFace()
	if err != nil {
		return nil, err
	}

	store, err := filestore.Open(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding store: %w", err)
	}
	if _, err := store.EnsureManifest(cfg.Face.Model, metric.String()); err != nil {
		if errors.Is(err, database.ErrManifestMismatch) {
			return nil, fmt.Errorf("%w\nUse the same --model and --metric as the first run, or point PHOTO_INDEX_HOME at a new directory", err)
		}
		return nil, err
	}

	return &faceDeps{store: store, metric: metric, threshold: threshold}, nil
}

// openIndex opens the photo index. Read-only commands use create=false and
// get a directive error when nothing has been indexed yet.
func openIndex(cfg *config.Config, create bool) (*sqlite.Index, error) {
	if create {
		idx, err := sqlite.Open(cfg.IndexPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open index: %w", err)
		}
		return idx, nil
	}

	idx, err := sqlite.OpenExisting(cfg.IndexPath())
	if err != nil {
		if errors.Is(err, database.ErrIndexMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}
