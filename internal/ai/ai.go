package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/types"
)

// Service is the external text-generation collaborator: given a thread's
// concatenated text (or a book title) it produces structured content that
// the pipeline files into the side datasets. Implementations must return an
// error on any response that fails shape validation; callers leave the
// existing stored value untouched in that case.
type Service interface {
	Categories(ctx context.Context, text string) ([]string, error)
	Summary(ctx context.Context, text string) (string, error)
	Exam(ctx context.Context, text string) ([]types.ExamQuestion, error)
	BookCategories(ctx context.Context, title, description string) ([]string, error)
}

// OpenAIService implements Service against the OpenAI chat completion API.
type OpenAIService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func NewOpenAIService(cfg config.AIConfig, logger *zap.Logger) *OpenAIService {
	return &OpenAIService{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      logger,
	}
}

// complete sends one prompt and returns the raw text of the first choice.
func (s *OpenAIService) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   s.maxTokens,
			Temperature: s.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Categories asks for category slugs for a thread.
func (s *OpenAIService) Categories(ctx context.Context, text string) ([]string, error) {
	raw, err := s.complete(ctx, categoriesPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseSlugList(raw)
}

// Summary asks for a one-sentence summary of a thread.
func (s *OpenAIService) Summary(ctx context.Context, text string) (string, error) {
	raw, err := s.complete(ctx, summaryPrompt(text))
	if err != nil {
		return "", err
	}
	return parseSummary(raw)
}

// Exam asks for multiple-choice comprehension questions over a thread.
func (s *OpenAIService) Exam(ctx context.Context, text string) ([]types.ExamQuestion, error) {
	raw, err := s.complete(ctx, examPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseExam(raw)
}

// BookCategories asks for subject tags for one book.
func (s *OpenAIService) BookCategories(ctx context.Context, title, description string) ([]string, error) {
	raw, err := s.complete(ctx, bookCategoriesPrompt(title, description))
	if err != nil {
		return nil, err
	}
	return parseSlugList(raw)
}
