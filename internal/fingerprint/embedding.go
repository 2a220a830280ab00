// Package fingerprint wraps the face-embedding server: it prepares images,
// posts them for face detection and turns the response into an Extraction.
package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/photo-index/internal/facematch"
)

const (
	defaultEmbeddingURL = "http://localhost:8000"

	// CPU inference on a large photo can take tens of seconds
	faceRequestTimeout = 2 * time.Minute
)

// FaceClient detects faces and computes their embeddings using the embedding server
type FaceClient struct {
	baseURL string
	client  *http.Client
}

// NewFaceClient creates a new face client
func NewFaceClient(baseURL string) *FaceClient {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &FaceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: faceRequestTimeout},
	}
}

// FaceDetection represents a single detected face
type FaceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// FaceResponse represents the response from the face embedding endpoint
type FaceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []FaceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// postMultipartImage constructs a multipart form with the image data and the
// model name and posts it to the given endpoint.
func (c *FaceClient) postMultipartImage(ctx context.Context, endpoint string, imageData []byte, model string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", partContentType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if model != "" {
		if err := writer.WriteField("model", model); err != nil {
			return nil, fmt.Errorf("failed to write model field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// partContentType returns the sniffed image type of data, or
// application/octet-stream when it does not look like an image.
func partContentType(data []byte) string {
	if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "application/octet-stream"
}

// ComputeFaceEmbeddings detects faces and computes their embeddings
func (c *FaceClient) ComputeFaceEmbeddings(ctx context.Context, imageData []byte, model string) (*FaceResponse, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", imageData, model)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &faceResp, nil
}

// Extract runs face detection on an encoded image and classifies the outcome.
// It never returns an error: failures are reported as an ExtractionError
// result so a batch can record them and move on.
func (c *FaceClient) Extract(ctx context.Context, imageData []byte, model string) facematch.Extraction {
	resp, err := c.ComputeFaceEmbeddings(ctx, imageData, model)
	if err != nil {
		return facematch.ExtractionError(err)
	}
	return ExtractionFromResponse(resp)
}

// ExtractionFromResponse converts a server response into an Extraction.
// Faces without an embedding or with a malformed bbox fail the whole image
// since crops and embeddings must stay paired.
func ExtractionFromResponse(resp *FaceResponse) facematch.Extraction {
	if resp == nil || len(resp.Faces) == 0 {
		return facematch.NoFaceFound()
	}

	dim := 0
	faces := make([]facematch.Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.Embedding) == 0 {
			return facematch.ExtractionError(fmt.Errorf("face %d has an empty embedding", f.FaceIndex))
		}
		if dim == 0 {
			dim = len(f.Embedding)
		} else if len(f.Embedding) != dim {
			return facematch.ExtractionError(fmt.Errorf("face %d embedding has %d dimensions, expected %d", f.FaceIndex, len(f.Embedding), dim))
		}
		bbox, err := facematch.BBoxFromCorners(f.BBox)
		if err != nil {
			return facematch.ExtractionError(fmt.Errorf("face %d: %w", f.FaceIndex, err))
		}
		faces = append(faces, facematch.Face{
			Embedding: f.Embedding,
			BBox:      bbox,
			DetScore:  f.DetScore,
		})
	}
	return facematch.Detected(faces)
}
