package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration is sufficient for the given mode.
// Modes: "evaluate" (full pipeline run), "serve" (status server),
// "report" (read-only ledger access).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "evaluate":
		switch c.Evaluator.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				problems = append(problems, "anthropic.key is required for provider anthropic")
			}
		case "gemini":
			if c.Gemini.Key == "" {
				problems = append(problems, "gemini.key is required for provider gemini")
			}
		default:
			problems = append(problems, "evaluator.provider must be anthropic or gemini")
		}
		if len(c.Intake.Feeds) == 0 {
			problems = append(problems, "intake.feeds must list at least one feed file")
		}
		if c.Evaluator.BatchSize < 1 {
			problems = append(problems, "evaluator.batch_size must be >= 1")
		}
		if c.Evaluator.TimeoutSecs < 1 {
			problems = append(problems, "evaluator.timeout_secs must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "report":
		// Store defaults always yield a usable SQLite path.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
