package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini synthesizes with a Google Gemini generative model.
type Gemini struct {
	client  *genai.Client
	name    string
	answer  *genai.GenerativeModel
	summary *genai.GenerativeModel
	timeout time.Duration
}

// NewGemini connects to the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey, model string, temperature float32, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini synthesizer: API key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini synthesizer: %w", err)
	}
	newModel := func(system string) *genai.GenerativeModel {
		m := client.GenerativeModel(model)
		m.SetTemperature(temperature)
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		return m
	}
	return &Gemini{
		client:  client,
		name:    model,
		answer:  newModel(answerSystemPrompt),
		summary: newModel(summarySystemPrompt),
		timeout: timeout,
	}, nil
}

// Name returns the provider name.
func (s *Gemini) Name() string { return "gemini" }

// Answer asks the model to answer question from contexts only.
func (s *Gemini) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	if err := checkContext("answer", contexts); err != nil {
		return "", err
	}
	return s.generate(ctx, "answer", s.answer, answerPrompt(question, contexts))
}

// Summarize asks the model for a structured summary of chunks.
func (s *Gemini) Summarize(ctx context.Context, chunks []string) (string, error) {
	if err := checkContext("summarize", chunks); err != nil {
		return "", err
	}
	return s.generate(ctx, "summarize", s.summary, summaryPrompt(chunks))
}

func (s *Gemini) generate(ctx context.Context, op string, model *genai.GenerativeModel, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", upstream(op, fmt.Errorf("gemini %s: %w", s.name, err))
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", upstream(op, errors.New("no response generated"))
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the client connection.
func (s *Gemini) Close() error {
	return s.client.Close()
}
