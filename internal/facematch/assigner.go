package facematch

import (
	"context"
	"fmt"
	"image"

	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/logger"
)

// Assigner gives every detected face a stable identity key, creating new
// identities when no known one is close enough.
type Assigner struct {
	store     database.IdentityWriter
	metric    Metric
	threshold float64
}

// Assignment describes how one face was assigned.
type Assignment struct {
	Key      string
	Created  bool    // a new identity was created for this face
	Distance float64 // distance to the closest known embedding, +Inf if none
}

// NewAssigner creates an assigner. The metric must already be validated.
func NewAssigner(store database.IdentityWriter, metric Metric, threshold float64) *Assigner {
	return &Assigner{
		store:     store,
		metric:    metric,
		threshold: threshold,
	}
}

// Metric returns the configured distance metric.
func (a *Assigner) Metric() Metric {
	return a.metric
}

// Threshold returns the configured match threshold.
func (a *Assigner) Threshold() float64 {
	return a.threshold
}

// Assign matches the embedding against the store, reusing the closest identity
// within threshold or creating a new one, then persists the embedding and crop
// under the resulting key.
func (a *Assigner) Assign(ctx context.Context, embedding []float64, crop []byte) (*Assignment, error) {
	match, err := Match(ctx, a.store, embedding, a.metric, a.threshold)
	if err != nil {
		return nil, err
	}

	result := &Assignment{Key: match.Key, Distance: match.Distance}
	if !match.Found {
		key, err := a.store.CreateIdentity(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create identity: %w", err)
		}
		result.Key = key
		result.Created = true
	}

	if _, err := a.store.AddEmbedding(ctx, result.Key, embedding, crop); err != nil {
		return nil, fmt.Errorf("failed to store embedding under %s: %w", result.Key, err)
	}

	logger.Debug("face assigned to %s (distance=%.4f, created=%v, compared=%d)",
		result.Key, match.Distance, result.Created, match.Compared)
	return result, nil
}

// AssignExtraction maps an extraction outcome to identity keys, one per face in
// detection order. Images without a face and failed extractions both yield the
// single sentinel key "unknown" without touching the store. All faces are
// cropped before the first one is assigned, so a face that cannot be cropped
// degrades the whole image to "unknown" and leaves the store unchanged. The
// error is only set for store failures.
func (a *Assigner) AssignExtraction(ctx context.Context, ext Extraction, img image.Image) ([]Assignment, error) {
	switch ext.Status {
	case StatusDetected:
		if len(ext.Faces) == 0 {
			return unknownAssignment(), nil
		}
	case StatusNoFace:
		return unknownAssignment(), nil
	case StatusFailed:
		logger.Warn("face extraction failed, recording %q: %v", constants.UnknownIdentity, ext.Err)
		return unknownAssignment(), nil
	default:
		return nil, fmt.Errorf("unexpected extraction status %v", ext.Status)
	}

	crops := make([][]byte, len(ext.Faces))
	for i, face := range ext.Faces {
		crop, err := CropFace(img, face.BBox)
		if err != nil {
			logger.Warn("face %d cannot be cropped, recording %q: %v", i, constants.UnknownIdentity, err)
			return unknownAssignment(), nil
		}
		crops[i] = crop
	}

	assignments := make([]Assignment, 0, len(ext.Faces))
	for i, face := range ext.Faces {
		assignment, err := a.Assign(ctx, face.Embedding, crops[i])
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}
	return assignments, nil
}

// Keys returns the identity keys of the assignments in order.
func Keys(assignments []Assignment) []string {
	keys := make([]string, len(assignments))
	for i, a := range assignments {
		keys[i] = a.Key
	}
	return keys
}

func unknownAssignment() []Assignment {
	return []Assignment{{Key: constants.UnknownIdentity}}
}
