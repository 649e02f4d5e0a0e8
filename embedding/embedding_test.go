package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockProviderDeterministic(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	provider := NewMockProvider()

	first, err := provider.EmbedQuery(ctx, "some text")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	second, err := provider.EmbedQuery(ctx, "some text")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(first, MockDimension)
	assert.Equal(first, second, "same text maps to the same vector")

	other, err := provider.EmbedQuery(ctx, "different text")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.NotEqual(first, other)
}

func TestMockProviderEmbedDocuments(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	provider := NewMockProvider()

	embeddings, err := provider.EmbedDocuments(ctx, []string{"a", "b", "c"})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(embeddings, 3)

	single, err := provider.EmbedQuery(ctx, "b")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(single, embeddings[1])
}

func TestResolverCredentialFallback(t *testing.T) {
	assert := assert.New(t)

	resolver := &EnvResolver{
		Getenv: func(string) string { return "" },
	}

	provider, err := resolver.Resolve(ModelOpenAIEmbed3Large)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(ModelMock, provider.Model(), "missing credential falls back to mock")
}

func TestResolverWithCredential(t *testing.T) {
	assert := assert.New(t)

	resolver := &EnvResolver{
		Getenv: func(key string) string {
			if key == "OPENAI_API_KEY" {
				return "sk-test"
			}

			return ""
		},
	}

	provider, err := resolver.Resolve(ModelOpenAIEmbed3Small)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(ModelOpenAIEmbed3Small, provider.Model())
}

func TestResolverUnknownModel(t *testing.T) {
	assert := assert.New(t)

	resolver := NewEnvResolver()

	_, err := resolver.Resolve("word2vec")
	assert.ErrorIs(err, ErrUnknownModel)
}
