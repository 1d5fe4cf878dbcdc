package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI synthesizes with a chat completion model on any OpenAI-compatible server.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewOpenAI returns an OpenAI synthesizer. baseURL may be empty for the public API.
func NewOpenAI(apiKey, baseURL, model string, temperature float32, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("openai synthesizer: API key is not set")
	}
	if model == "" {
		return nil, fmt.Errorf("openai synthesizer: model is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

// Name returns the provider name.
func (s *OpenAI) Name() string { return "openai" }

// Answer asks the model to answer question from contexts only.
func (s *OpenAI) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	if err := checkContext("answer", contexts); err != nil {
		return "", err
	}
	return s.complete(ctx, "answer", answerSystemPrompt, answerPrompt(question, contexts))
}

// Summarize asks the model for a structured summary of chunks.
func (s *OpenAI) Summarize(ctx context.Context, chunks []string) (string, error) {
	if err := checkContext("summarize", chunks); err != nil {
		return "", err
	}
	return s.complete(ctx, "summarize", summarySystemPrompt, summaryPrompt(chunks))
}

func (s *OpenAI) complete(ctx context.Context, op, system, user string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", upstream(op, fmt.Errorf("openai chat: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", upstream(op, errors.New("no response generated"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
