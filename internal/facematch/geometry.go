package facematch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrEmptyCrop is returned when a bounding box does not overlap the image.
var ErrEmptyCrop = errors.New("face bounding box is outside the image")

// BBoxFromCorners converts a pixel bbox [x1, y1, x2, y2] to x, y, width, height.
// Fractional coordinates are expanded outward to whole pixels.
func BBoxFromCorners(corners []float64) (BBox, error) {
	if len(corners) != 4 {
		return BBox{}, fmt.Errorf("expected 4 bbox coordinates, got %d", len(corners))
	}
	for _, c := range corners {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return BBox{}, fmt.Errorf("bbox %v has a non-finite coordinate", corners)
		}
	}
	if corners[2] <= corners[0] || corners[3] <= corners[1] {
		return BBox{}, fmt.Errorf("bbox %v has no area", corners)
	}
	x1 := int(math.Floor(corners[0]))
	y1 := int(math.Floor(corners[1]))
	x2 := int(math.Ceil(corners[2]))
	y2 := int(math.Ceil(corners[3]))
	return BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}, nil
}

// Rect returns the bbox as an image rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// ClampBBox restricts the bbox to the given image bounds. Detectors regularly
// report boxes reaching past the image edge.
func ClampBBox(b BBox, bounds image.Rectangle) image.Rectangle {
	return b.Rect().Add(bounds.Min).Intersect(bounds)
}

// CropFace cuts the face region out of img and encodes it as PNG.
func CropFace(img image.Image, b BBox) ([]byte, error) {
	rect := ClampBBox(b, img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyCrop
	}

	crop := imaging.Crop(img, rect)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, crop, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}
