package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/facematch"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	DataDir        string // root for index.db and the embedding store
	Face           FaceConfig
	Embedding      EmbeddingConfig
	Caption        CaptionConfig
	OpenAI         OpenAIConfig
	Gemini         GeminiConfig
	Ollama         OllamaConfig
	PreviewCommand string // external command used to show a face crop, e.g. "kitty icat"
	Thresholds     ThresholdsConfig
}

type FaceConfig struct {
	Model     string  // defaults to Facenet512
	Metric    string  // defaults to euclidean_l2
	Threshold float64 // 0 means use the recommended value for Model and Metric
	Resize    int     // square side images are resized to before extraction, 0 disables
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type CaptionConfig struct {
	Provider string // ollama, openai or gemini
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	URL   string // defaults to http://localhost:11434
	Model string // defaults to llava
}

type ThresholdsConfig struct {
	Models map[string]map[string]float64 `yaml:"models"`
}

// envInt reads an environment variable and parses it as a non-negative integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DataDirName
	}
	return filepath.Join(home, constants.DataDirName)
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	return &Config{
		DataDir: envString("PHOTO_INDEX_HOME", defaultDataDir()),
		Face: FaceConfig{
			Model:     envString("FACE_MODEL", constants.DefaultFaceModel),
			Metric:    envString("FACE_DISTANCE_METRIC", constants.DefaultDistanceMetric),
			Threshold: envFloat("FACE_THRESHOLD", 0),
			Resize:    envInt("FACE_RESIZE", constants.DefaultFaceResize),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		Caption: CaptionConfig{
			Provider: envString("CAPTION_PROVIDER", "ollama"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Ollama: OllamaConfig{
			URL:   os.Getenv("OLLAMA_URL"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
		PreviewCommand: os.Getenv("PREVIEW_COMMAND"),
		Thresholds:     thresholds,
	}
}

// IndexPath returns the location of the full-text index database
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, constants.IndexDBFile)
}

// StorePath returns the location of the embedding store
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, constants.KnownEmbeddingsDir)
}

// ModelNames returns the models with recommended thresholds, sorted
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.Thresholds.Models))
	for name := range c.Thresholds.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecommendedThreshold returns the recommended threshold for a model and metric
func (c *Config) RecommendedThreshold(model string, metric facematch.Metric) (float64, error) {
	metrics, ok := c.Thresholds.Models[model]
	if !ok {
		return 0, fmt.Errorf("no recommended thresholds for model %q", model)
	}
	t, ok := metrics[metric.String()]
	if !ok {
		return 0, fmt.Errorf("no recommended threshold for model %q and metric %s", model, metric)
	}
	return t, nil
}

// ResolveFace validates the face settings and returns the metric and the
// threshold to use. An explicit threshold wins over the recommended one, which
// lets unknown models run as long as a threshold is given.
func (c *Config) ResolveFace() (facematch.Metric, float64, error) {
	if c.Face.Model == "" {
		return "", 0, fmt.Errorf("face model not set")
	}
	metric, err := facematch.ParseMetric(c.Face.Metric)
	if err != nil {
		return "", 0, err
	}
	if c.Face.Threshold < 0 {
		return "", 0, fmt.Errorf("threshold must be positive, got %v", c.Face.Threshold)
	}
	if c.Face.Threshold > 0 {
		return metric, c.Face.Threshold, nil
	}
	t, err := c.RecommendedThreshold(c.Face.Model, metric)
	if err != nil {
		return "", 0, fmt.Errorf("%w (set FACE_THRESHOLD or --threshold)", err)
	}
	return metric, t, nil
}
