package ai

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kozaktomas/photo-index/internal/config"
)

//go:embed prompts/caption.txt
var captionPrompt string

// Captioner produces a short natural-language description of a photo.
type Captioner interface {
	Name() string
	Caption(ctx context.Context, imageData []byte) (string, error)
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// NewCaptioner builds the captioner selected by cfg.Caption.Provider.
// An empty provider selects Ollama.
func NewCaptioner(ctx context.Context, cfg *config.Config) (Captioner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Caption.Provider)) {
	case "", ProviderOllama:
		return NewOllamaProvider(cfg.Ollama.URL, cfg.Ollama.Model), nil
	case ProviderOpenAI:
		if cfg.OpenAI.Token == "" {
			return nil, fmt.Errorf("OPENAI_TOKEN is required for the %s caption provider", ProviderOpenAI)
		}
		return NewOpenAIProvider(cfg.OpenAI.Token), nil
	case ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the %s caption provider", ProviderGemini)
		}
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unknown caption provider %q (expected ollama, openai or gemini)", cfg.Caption.Provider)
	}
}

var lower = cases.Lower(language.Und)

// NormalizeCaption lowercases a caption and drops every character that is
// not a letter, digit or whitespace. Runs of whitespace collapse to a single
// space.
func NormalizeCaption(caption string) string {
	var b strings.Builder
	for _, r := range lower.String(caption) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
