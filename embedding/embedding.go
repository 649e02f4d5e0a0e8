package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

var ErrUnknownModel = errors.New("unknown embedding model")

// Provider embeds text with a named model. The vector width is a
// property of the model and stable across calls.
type Provider interface {
	Model() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderError wraps a rejection by the provider's API, such as a bad
// credential or an exhausted quota. It is never retried automatically.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %s", e.Model, e.Err.Error())
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Resolver turns a model name into a Provider.
type Resolver interface {
	Resolve(model string) (Provider, error)
}

// EnvResolver resolves the closed set of supported model names,
// reading credentials through Getenv. It is the single policy point
// for the credential fallback: an OpenAI model with no API key in the
// environment is substituted with the deterministic mock provider and
// a warning is logged. Unknown model names fail before any network
// call.
type EnvResolver struct {
	Getenv func(string) string
}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{Getenv: os.Getenv}
}

func (r *EnvResolver) Resolve(model string) (Provider, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	switch model {
	case ModelMock:
		return NewMockProvider(), nil

	case ModelOpenAIEmbed3Large, ModelOpenAIEmbed3Small:
		apiKey := strings.TrimSpace(getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			zap.L().Warn("OPENAI_API_KEY not set, falling back to mock embedding provider",
				zap.String("model", model),
			)

			return NewMockProvider(), nil
		}

		return NewOpenAIProvider(model, apiKey), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
}

// Supported model names.
const (
	ModelMock              = "mock"
	ModelOpenAIEmbed3Large = "openai_embed_3_large"
	ModelOpenAIEmbed3Small = "openai_embed_3_small"
)
