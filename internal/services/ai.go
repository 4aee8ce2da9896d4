package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/group-chat-api/internal/models"
)

var ErrAIServiceNotConfigured = errors.New("AI service is not configured")

// chatCompleter is the part of the OpenAI client the digest uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client chatCompleter
}

// NewAIService returns nil when apiKey is empty.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return nil
	}
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SummarizeMessages asks GPT for a short digest of a window of group messages.
func (s *AIService) SummarizeMessages(ctx context.Context, group *models.Group, messages []models.Message) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrAIServiceNotConfigured
	}
	if len(messages) == 0 {
		return "", nil
	}

	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "[%s] %s: %s\n", m.DatePosted.Format("2006-01-02 15:04"), m.Author.Email, m.Text)
	}

	prompt := fmt.Sprintf(`You summarize group chat conversations.

Group: %s

Transcript (oldest first):
%s
Write a digest of at most five short bullet points covering the topics discussed,
decisions made and open questions. Refer to people by their email address.
Return only the bullet points.`, group.Name, transcript.String())

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
