package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"favourflix.com/favourflix-api/internal/config"
	"favourflix.com/favourflix-api/internal/logging"
)

const defaultModelName = "gemini-1.5-flash"

// ErrEmptyCompletion is returned when Gemini answers without any text part.
var ErrEmptyCompletion = errors.New("gemini returned no text")

type LLMService struct {
	client    *genai.Client
	modelName string
}

func NewLLMService(ctx context.Context, cfg config.GeminiConfig) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModelName
	}

	return &LLMService{
		client:    client,
		modelName: modelName,
	}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing GenAI client")
		} else {
			logging.Info().Msg("GenAI client closed.")
		}
	}
}

// GenerateText sends a single-turn prompt and returns the concatenated text
// parts of the first candidate.
func (s *LLMService) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	temp := float32(0.7)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			logging.Ctx(ctx).Debug().Str("part_type", fmt.Sprintf("%T", part)).Msg("Gemini response part was not text")
		}
	}

	if responseText.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return responseText.String(), nil
}
