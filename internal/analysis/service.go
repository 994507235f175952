package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/snapfactlabs/snapfact/internal/gemini"
	"github.com/snapfactlabs/snapfact/internal/nebius"
	"github.com/snapfactlabs/snapfact/internal/ollama"
	"github.com/snapfactlabs/snapfact/internal/openai"
	"github.com/snapfactlabs/snapfact/internal/providers"
)

// Sentinel errors for the two caller-fault outcomes. Everything else that
// Analyze returns is an upstream failure.
var (
	ErrNoImageURL      = errors.New("no image URL provided")
	ErrContentRejected = errors.New("image rejected by safety check")
)

const moderationPrompt = "You are an image safety classifier. " +
	"Reply with exactly one word: SAFE if the image is appropriate for a general audience, " +
	"or UNSAFE if it contains explicit, violent, hateful, or otherwise inappropriate content."

const descriptionPrompt = "What's in this image? Provide a brief, interesting fact about what you see."

const (
	moderationMaxTokens  = 10
	descriptionMaxTokens = 100
)

// Service runs the two-stage image analysis pipeline: a safety check that
// gates a description request.
type Service struct {
	provider providers.Provider
	model    string
}

// NewService builds a Service from the ANALYZE_PROVIDER environment variable
// (default "nebius") and the matching <PROVIDER>_MODEL variable.
func NewService() (*Service, error) {
	name := os.Getenv("ANALYZE_PROVIDER")
	if name == "" {
		name = "nebius"
	}

	provider, model, err := providerFor(name)
	if err != nil {
		return nil, err
	}

	return &Service{provider: provider, model: model}, nil
}

// NewServiceWithProvider builds a Service around an explicit provider.
func NewServiceWithProvider(provider providers.Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Model reports the model the service sends requests to.
func (s *Service) Model() string {
	return s.model
}

func providerFor(name string) (providers.Provider, string, error) {
	switch name {
	case "nebius":
		return nebius.New(), defaultModel("NEBIUS_MODEL", "Qwen/Qwen2-VL-72B-Instruct"), nil
	case "openai":
		return openai.New(), defaultModel("OPENAI_MODEL", "gpt-4o"), nil
	case "ollama":
		return ollama.New(), defaultModel("OLLAMA_MODEL", "llama3.2-vision"), nil
	case "gemini":
		return gemini.New(), defaultModel("GEMINI_MODEL", "gemini-1.5-flash"), nil
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", name)
	}
}

func defaultModel(envVar, fallback string) string {
	if model := os.Getenv(envVar); model != "" {
		return model
	}
	return fallback
}

// Analyze runs moderation then description for the given image. It returns
// the generated fact, ErrNoImageURL for an empty input, ErrContentRejected
// when the safety check trips, or a wrapped upstream error.
func (s *Service) Analyze(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", ErrNoImageURL
	}

	if err := s.Moderate(ctx, imageURL); err != nil {
		return "", err
	}

	return s.Describe(ctx, imageURL)
}

// Moderate asks the provider for a safe/unsafe verdict on the image. A
// verdict containing "unsafe" (any case) yields ErrContentRejected. A failed
// moderation call is fatal; there is no fail-open fallback.
func (s *Service) Moderate(ctx context.Context, imageURL string) error {
	verdict, err := s.provider.DescribeImage(ctx, providers.Config{
		Model:       s.model,
		Temperature: 0,
		MaxTokens:   moderationMaxTokens,
		Prompt:      moderationPrompt,
		ImageURL:    imageURL,
	})
	if err != nil {
		return fmt.Errorf("moderation stage: %w", err)
	}

	if strings.Contains(strings.ToLower(verdict), "unsafe") {
		return ErrContentRejected
	}

	return nil
}

// Describe asks the provider for a short fact about the image.
func (s *Service) Describe(ctx context.Context, imageURL string) (string, error) {
	raw, err := s.provider.DescribeImage(ctx, providers.Config{
		Model:       s.model,
		Temperature: 1,
		MaxTokens:   descriptionMaxTokens,
		Prompt:      descriptionPrompt,
		ImageURL:    imageURL,
	})
	if err != nil {
		return "", fmt.Errorf("description stage: %w", err)
	}

	fact := extractFact(raw)
	if fact == "" {
		return "", fmt.Errorf("description stage: empty response from provider")
	}

	return fact, nil
}

// extractFact normalizes provider output. Some models answer with a JSON
// object instead of plain text; mine it for a description or fact field and
// fall back to the raw text.
func extractFact(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "{") {
		return text
	}

	var obj struct {
		Description string `json:"description"`
		Fact        string `json:"fact"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return text
	}

	if obj.Description != "" {
		return strings.TrimSpace(obj.Description)
	}
	if obj.Fact != "" {
		return strings.TrimSpace(obj.Fact)
	}
	return text
}
