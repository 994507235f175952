package providers

import (
	"context"
)

// Config represents the configuration for a vision LLM request
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
	ImageURL    string
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	DescribeImage(ctx context.Context, config Config) (string, error)
}
