// Package gemini is the reasoning-service client. Callers own prompt
// construction and response parsing; this package only moves text.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	apiTimeout = 30 * time.Second
	attempts   = 3
)

type Service struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey string) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Service{client: client}, nil
}

// Generate sends one prompt and returns the raw response text. Transient
// failures are retried with a short backoff before the error surfaces.
func (s *Service) Generate(ctx context.Context, model string, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	}

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		response, err = s.client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			break
		}
		if attempt < attempts-1 {
			select {
			case <-time.After(time.Duration(attempt+1) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model %s", model)
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text parts in response from model %s", model)
	}

	return text.String(), nil
}
