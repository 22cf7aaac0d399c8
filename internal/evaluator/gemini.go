package evaluator

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/casawatch/triage-cli/internal/resilience"
	"github.com/casawatch/triage-cli/pkg/gemini"
)

type geminiEvaluator struct {
	client gemini.Client
	model  string
}

// NewGemini returns an evaluator backed by the Gemini generateContent API.
func NewGemini(client gemini.Client, model string) Client {
	return &geminiEvaluator{client: client, model: model}
}

func (e *geminiEvaluator) Name() string { return "gemini" }

func (e *geminiEvaluator) Evaluate(ctx context.Context, system, user string) (string, error) {
	temp := defaultTemperature
	maxTokens := defaultMaxTokens
	resp, err := e.client.GenerateContent(ctx, gemini.GenerateRequest{
		Model:             e.model,
		SystemInstruction: &gemini.Content{Parts: []gemini.Part{{Text: system}}},
		Contents: []gemini.Content{
			{Role: "user", Parts: []gemini.Part{{Text: user}}},
		},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     &temp,
			MaxOutputTokens: &maxTokens,
		},
	})
	if err != nil {
		return "", classifyGeminiErr(err)
	}

	text := resp.Text()
	if text == "" {
		return "", eris.New("evaluator: gemini returned empty response")
	}
	return text, nil
}

func classifyGeminiErr(err error) error {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) && resilience.IsOverloadedHTTPStatus(apiErr.StatusCode) {
		return resilience.NewOverloadedError(err, apiErr.StatusCode)
	}
	return err
}
