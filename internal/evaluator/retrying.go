package evaluator

import (
	"context"
	"time"

	"github.com/casawatch/triage-cli/internal/resilience"
)

// retryingClient wraps a Client with bounded overload retry and a per-call
// timeout. Non-overload errors propagate on the first failure.
type retryingClient struct {
	inner   Client
	cfg     resilience.RetryConfig
	timeout time.Duration
}

// WithRetry wraps client so overloaded provider responses are retried with
// the default linear backoff, each attempt bounded by timeout.
func WithRetry(client Client, timeout time.Duration) Client {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(client.Name(), "evaluate")
	return &retryingClient{inner: client, cfg: cfg, timeout: timeout}
}

func (c *retryingClient) Name() string { return c.inner.Name() }

func (c *retryingClient) Evaluate(ctx context.Context, system, user string) (string, error) {
	return resilience.DoVal(ctx, c.cfg, func(ctx context.Context) (string, error) {
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return c.inner.Evaluate(callCtx, system, user)
	})
}
