package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockDimension is the fixed width of mock embeddings, kept low so
// local runs stay cheap.
const MockDimension = 128

// NewMockProvider returns a provider producing deterministic
// embeddings derived from the text alone. The same text always maps to
// the same vector, which keeps tests and credential-less local runs
// reproducible.
func NewMockProvider() Provider {
	return &mockProvider{}
}

type mockProvider struct{}

func (p *mockProvider) Model() string {
	return ModelMock
}

func (p *mockProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	embedding := make([]float32, MockDimension)

	var norm float64
	for i := range embedding {
		// xorshift64 keeps the sequence reproducible per seed
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17

		v := float64(int64(state)) / float64(math.MaxInt64)
		embedding[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}

	return embedding, nil
}

func (p *mockProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := p.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}

		embeddings[i] = embedding
	}

	return embeddings, nil
}
