package evaluator

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/casawatch/triage-cli/internal/resilience"
	"github.com/casawatch/triage-cli/pkg/anthropic"
)

type anthropicEvaluator struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns an evaluator backed by the Anthropic Messages API.
func NewAnthropic(client anthropic.Client, model string) Client {
	return &anthropicEvaluator{client: client, model: model}
}

func (e *anthropicEvaluator) Name() string { return "anthropic" }

func (e *anthropicEvaluator) Evaluate(ctx context.Context, system, user string) (string, error) {
	temp := defaultTemperature
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: &temp,
		System:      []anthropic.SystemBlock{{Text: system}},
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", classifyAnthropicErr(err)
	}

	text := resp.Text()
	if text == "" {
		return "", eris.New("evaluator: anthropic returned empty response")
	}
	return text, nil
}

// classifyAnthropicErr marks overload statuses (529 and friends) as
// retryable; everything else passes through unchanged.
func classifyAnthropicErr(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && resilience.IsOverloadedHTTPStatus(apiErr.StatusCode) {
		return resilience.NewOverloadedError(err, apiErr.StatusCode)
	}
	return err
}
