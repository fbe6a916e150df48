package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"gazette-backend/internal/retry"
)

// ErrSchemaInvalid marks a model response that failed schema validation.
// Moderation and categorization fail their whole batch on it.
var ErrSchemaInvalid = errors.New("model response failed schema validation")

// TextGenerator is the single capability the pipeline needs from the
// language-model provider.
type TextGenerator interface {
	GenerateStructured(ctx context.Context, system, user string) (string, error)
	MaxTokens() int
}

const (
	llmCallTimeout  = 30 * time.Second
	llmCallAttempts = 3
)

type GeminiService struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	maxTokens int
	rateChan  chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, maxTokens, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		rateChan:  rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

func (s *GeminiService) MaxTokens() int {
	return s.maxTokens
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateStructured sends one prompt and returns the raw completion text
// with any markdown code fences stripped. Transport failures are retried
// with backoff; schema validation belongs to the caller.
func (s *GeminiService) GenerateStructured(ctx context.Context, system, user string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	prompt := system + "\n\n" + user

	var text string
	err := retry.Do(ctx, llmCallAttempts, time.Second, func() error {
		callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
		defer cancel()

		resp, err := s.model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return fmt.Errorf("Gemini API error: %w", err)
		}
		text = extractText(resp)
		if text == "" {
			return fmt.Errorf("Gemini returned empty text")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return StripFences(text), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// StripFences removes a wrapping markdown code fence from a model response.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
