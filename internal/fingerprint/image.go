package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes image data in any registered format, applying the EXIF
// orientation so faces are upright.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// PrepareForExtraction resizes img to a size x size square. Aspect ratio is
// not kept; detection works on the squashed image and bounding boxes refer to
// it. A size of 0 returns the image unchanged.
func PrepareForExtraction(img image.Image, size int) image.Image {
	if size <= 0 {
		return img
	}
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// EncodeJPEG encodes img for upload to the embedding server.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
