package nebius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/snapfactlabs/snapfact/internal/providers"
)

const defaultBaseURL = "https://api.studio.nebius.ai"

// Nebius is a provider for the Nebius AI Studio OpenAI-compatible API
type Nebius struct {
	client *http.Client
}

// New returns a new Nebius provider
func New() *Nebius {
	return &Nebius{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// DescribeImage sends the prompt and image to Nebius and returns the model's text
func (n *Nebius) DescribeImage(ctx context.Context, config providers.Config) (string, error) {
	apiKey := os.Getenv("NEBIUS_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("NEBIUS_API_KEY environment variable not set")
	}

	baseURL := os.Getenv("NEBIUS_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	url := baseURL + "/v1/chat/completions"

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":       config.Model,
		"max_tokens":  config.MaxTokens,
		"temperature": config.Temperature,
		"stream":      false,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": config.Prompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": config.ImageURL,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from Nebius")
	}

	return response.Choices[0].Message.Content, nil
}
