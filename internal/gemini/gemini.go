package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/snapfactlabs/snapfact/internal/providers"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

// DescribeImage sends the prompt and image to Gemini and returns the model's text
func (g *Gemini) DescribeImage(ctx context.Context, config providers.Config) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	format, imageData, err := imageBytes(ctx, config.ImageURL)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(config.Prompt), genai.ImageData(format, imageData))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// imageBytes decodes a data URL or downloads a remote image, returning the
// image format (e.g. "jpeg") and raw bytes.
func imageBytes(ctx context.Context, imageURL string) (string, []byte, error) {
	if strings.HasPrefix(imageURL, "data:") {
		meta, payload, found := strings.Cut(imageURL, ",")
		if !found || payload == "" {
			return "", nil, fmt.Errorf("malformed data URL")
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
		}
		return formatFromMime(meta), data, nil
	}

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return formatFromMime(resp.Header.Get("Content-Type")), data, nil
}

func formatFromMime(s string) string {
	switch {
	case strings.Contains(s, "image/png"):
		return "png"
	case strings.Contains(s, "image/gif"):
		return "gif"
	case strings.Contains(s, "image/webp"):
		return "webp"
	default:
		return "jpeg"
	}
}
