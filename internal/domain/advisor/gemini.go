// Package advisor implements the score hint provider on top of Google Gemini.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
)

const (
	DefaultModel = "gemini-1.5-flash"

	// Lower temperature keeps expected scores consistent between runs.
	temperature = 0.5
)

var ErrMissingAPIKey = errors.New("gemini api key is not set")

// generateFunc sends a prompt and returns the model's text answer.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiAdvisor asks a Gemini model for an expected score and narrative.
type GeminiAdvisor struct {
	client   *genai.Client
	generate generateFunc
	logger   *slog.Logger
}

var _ scoring.HintProvider = (*GeminiAdvisor)(nil)

// NewGeminiAdvisor creates a Gemini client for model. An empty model selects
// DefaultModel.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.SetTemperature(temperature)

	a := &GeminiAdvisor{client: client, logger: logger}
	a.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("gemini api error: %w", err)
		}
		return responseText(resp)
	}

	logger.Info("gemini advisor ready", slog.String("model", model))
	return a, nil
}

// ScoreHint implements scoring.HintProvider.
func (a *GeminiAdvisor) ScoreHint(ctx context.Context, req scoring.HintRequest) (*scoring.Hint, error) {
	answer, err := a.generate(ctx, BuildPrompt(req))
	if err != nil {
		return nil, err
	}

	hint, err := ParseHint(answer)
	if err != nil {
		a.logger.Debug("unparseable gemini answer",
			slog.Any("error", err),
			slog.Int("answer_length", len(answer)))
		return nil, err
	}
	return hint, nil
}

// Close releases the underlying client.
func (a *GeminiAdvisor) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
