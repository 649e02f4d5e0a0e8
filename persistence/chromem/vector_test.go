package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flarexio/ragindex/embedding"
	"github.com/flarexio/ragindex/vector"
)

func TestChromemCollectionLifecycle(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()

	db, err := NewChromemVectorDB(vector.Config{DBType: vector.DBTypeChromem})
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer db.Close()

	exists, err := db.CollectionExists(ctx, "chunks")
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	assert.False(exists)

	if err := db.CreateCollection(ctx, "chunks", embedding.MockDimension, vector.DistanceCosine); err != nil {
		assert.Fail(err.Error())
		return
	}

	exists, err = db.CollectionExists(ctx, "chunks")
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	assert.True(exists)

	desc, err := db.DescribeCollection(ctx, "chunks")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(embedding.MockDimension, desc.Dimension)
	assert.Equal(vector.DBTypeChromem, desc.BackendType)
	assert.Zero(desc.DocumentCount)
}

func TestChromemCreateCollectionIdempotent(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	provider := embedding.NewMockProvider()

	db, err := NewChromemVectorDB(vector.Config{DBType: vector.DBTypeChromem})
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer db.Close()

	if err := db.CreateCollection(ctx, "chunks", embedding.MockDimension, vector.DistanceCosine); err != nil {
		assert.Fail(err.Error())
		return
	}

	emb, err := provider.EmbedQuery(ctx, "alpha content")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	docs := []vector.Document{{
		ID:        "alpha",
		Content:   "alpha content",
		Embedding: emb,
	}}

	if err := db.Upsert(ctx, "chunks", docs); err != nil {
		assert.Fail(err.Error())
		return
	}

	// A second create must keep the collection and its documents.
	if err := db.CreateCollection(ctx, "chunks", 64, vector.DistanceCosine); err != nil {
		assert.Fail(err.Error())
		return
	}

	desc, err := db.DescribeCollection(ctx, "chunks")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(1, desc.DocumentCount)
	assert.Equal(embedding.MockDimension, desc.Dimension)
}

func TestChromemUpsertAndQuery(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	provider := embedding.NewMockProvider()

	db, err := NewChromemVectorDB(vector.Config{DBType: vector.DBTypeChromem})
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer db.Close()

	if err := db.CreateCollection(ctx, "chunks", embedding.MockDimension, vector.DistanceCosine); err != nil {
		assert.Fail(err.Error())
		return
	}

	texts := []string{"alpha content", "beta content", "gamma content"}

	docs := make([]vector.Document, len(texts))
	for i, text := range texts {
		emb, err := provider.EmbedQuery(ctx, text)
		if err != nil {
			assert.Fail(err.Error())
			return
		}

		docs[i] = vector.Document{
			ID:        texts[i][:5],
			Content:   text,
			Embedding: emb,
		}
	}

	if err := db.Upsert(ctx, "chunks", docs); err != nil {
		assert.Fail(err.Error())
		return
	}

	// Re-upserting the first ID with new content must overwrite, not
	// duplicate.
	emb, err := provider.EmbedQuery(ctx, "alpha revised")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	update := []vector.Document{{
		ID:        docs[0].ID,
		Content:   "alpha revised",
		Embedding: emb,
	}}

	if err := db.Upsert(ctx, "chunks", update); err != nil {
		assert.Fail(err.Error())
		return
	}

	desc, err := db.DescribeCollection(ctx, "chunks")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(3, desc.DocumentCount)

	query, err := provider.EmbedQuery(ctx, "alpha revised")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	results, err := db.Query(ctx, "chunks", query, 1)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(results, 1)
	assert.Equal(docs[0].ID, results[0].ID)
	assert.Equal("alpha revised", results[0].Content)
}

func TestChromemPersistentRegistry(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	path := t.TempDir()

	cfg := vector.Config{
		DBType:     vector.DBTypeChromem,
		Persistent: true,
		Path:       path,
	}

	db, err := NewChromemVectorDB(cfg)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	if err := db.CreateCollection(ctx, "chunks", 64, vector.DistanceCosine); err != nil {
		assert.Fail(err.Error())
		return
	}
	db.Close()

	// A fresh handle over the same path must see the stored dimension.
	reopened, err := NewChromemVectorDB(cfg)
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer reopened.Close()

	desc, err := reopened.DescribeCollection(ctx, "chunks")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(64, desc.Dimension)
}
