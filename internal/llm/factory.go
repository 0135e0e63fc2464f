package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aisites/siteeditor/internal/config"
)

// New builds the configured provider client wrapped with the standard
// middleware stack. defaultTimeout bounds requests that carry no timeout.
func New(ctx context.Context, cfg config.LLMConfig, defaultTimeout time.Duration, logger *slog.Logger) (Generator, error) {
	var inner Generator
	switch cfg.Provider {
	case "", "openai":
		inner = NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "gemini":
		g, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		inner = g
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	// The timeout wraps the retries so one request never exceeds its budget.
	return Wrap(inner,
		Timeout(defaultTimeout),
		Logging(logger),
		Retry(cfg.MaxRetries+1, 300*time.Millisecond),
	), nil
}
