// Package evaluator abstracts the LLM providers behind a single text-in,
// text-out interface so the judge never knows which backend it is talking to.
package evaluator

import (
	"context"
)

// Client evaluates a system prompt plus user payload and returns the raw
// model reply. Implementations classify provider overload responses as
// resilience.OverloadedError so callers can retry them.
type Client interface {
	Evaluate(ctx context.Context, system, user string) (string, error)
	Name() string
}

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.1
)
