// Package facematch provides face identity clustering: distance metrics, nearest
// identity matching and identity assignment over an embedding store.
package facematch

import "fmt"

// BBox is a face bounding box in source-image pixel coordinates.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Face is a single detected face with its embedding.
type Face struct {
	Embedding []float64
	BBox      BBox
	DetScore  float64
}

// ExtractionStatus tells how face extraction for one image ended.
type ExtractionStatus int

const (
	StatusDetected ExtractionStatus = iota // One or more faces were found
	StatusNoFace                           // The model ran but found no face
	StatusFailed                           // The model or transport failed
)

func (s ExtractionStatus) String() string {
	switch s {
	case StatusDetected:
		return "detected"
	case StatusNoFace:
		return "no_face"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("ExtractionStatus(%d)", int(s))
	}
}

// Extraction is the outcome of running face extraction over one image.
type Extraction struct {
	Status ExtractionStatus
	Faces  []Face
	Err    error // set when Status is StatusFailed
}

// Detected returns an extraction holding the given faces. An empty slice is
// reported as NoFaceFound.
func Detected(faces []Face) Extraction {
	if len(faces) == 0 {
		return NoFaceFound()
	}
	return Extraction{Status: StatusDetected, Faces: faces}
}

// NoFaceFound returns an extraction for an image without any detectable face.
func NoFaceFound() Extraction {
	return Extraction{Status: StatusNoFace}
}

// ExtractionError returns an extraction that failed with err.
func ExtractionError(err error) Extraction {
	return Extraction{Status: StatusFailed, Err: err}
}
