package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/photo-index/internal/constants"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llava"

	// first request loads the model into memory, which takes a while
	ollamaTimeout = 5 * time.Minute
)

// OllamaProvider captions images with a local vision model served by Ollama.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: ollamaTimeout},
	}
}

func (p *OllamaProvider) Name() string {
	return p.model
}

// generateRequest is a single-shot /api/generate call with attached images
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images"` // base64, no data URL prefix
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (p *OllamaProvider) Caption(ctx context.Context, imageData []byte) (string, error) {
	resized, err := ResizeImage(imageData, constants.MaxCaptionImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to resize image: %w", err)
	}

	resp, err := p.generate(ctx, generateRequest{
		Model:  p.model,
		Prompt: captionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(resized)},
		Options: generateOptions{
			NumPredict: constants.MaxCaptionTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}

	caption := strings.TrimSpace(resp.Response)
	if caption == "" {
		return "", errors.New("no caption in Ollama response")
	}
	return caption, nil
}

func (p *OllamaProvider) generate(ctx context.Context, body generateRequest) (*generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach Ollama at %s (is `ollama serve` running?): %w", p.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out generateResponse
	if resp.StatusCode != http.StatusOK {
		// Ollama reports failures as {"error": "..."}
		if json.Unmarshal(data, &out) == nil && out.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != "" {
		return nil, errors.New(out.Error)
	}
	return &out, nil
}
