package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// RunnerFactory builds a Runner bound to a single credential. Login
// calls it once per session, so each session carries its own provider
// binding and sessions never share API keys.
type RunnerFactory interface {
	CreateRunner(apiKey string) (Runner, error)
}

// OpenAIRunnerFactory creates tool-calling runners against a fixed
// OpenAI-compatible endpoint and model taken from configuration.
type OpenAIRunnerFactory struct {
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewRunnerFactory creates a factory for the configured endpoint and model.
func NewRunnerFactory(endpoint, model string, logger *zap.Logger) *OpenAIRunnerFactory {
	return &OpenAIRunnerFactory{
		endpoint: endpoint,
		model:    model,
		logger:   logger,
	}
}

// CreateRunner builds a runner authenticated with the given API key.
// The key is held by the underlying HTTP client only; it is never
// logged or persisted by the runner.
func (f *OpenAIRunnerFactory) CreateRunner(apiKey string) (Runner, error) {
	client, err := NewClient(&Config{
		Endpoint: f.endpoint,
		Model:    f.model,
		APIKey:   apiKey,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return NewRunner(client), nil
}

// Ensure OpenAIRunnerFactory implements RunnerFactory at compile time.
var _ RunnerFactory = (*OpenAIRunnerFactory)(nil)
