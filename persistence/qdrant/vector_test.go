package qdrant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flarexio/ragindex/vector"
)

func TestQdrantQueryStripsInternalPayload(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/chunks/points/search" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result":[{
				"id": "8a9c2f40-0000-0000-0000-000000000000",
				"score": 0.87,
				"payload": {"original_id": "doc-1", "text": "alpha content", "lang": "en"}
			}]}`))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	db, err := NewQdrantVectorDB(vector.Config{
		DBType: vector.DBTypeQdrant,
		URL:    srv.URL,
	})
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer db.Close()

	results, err := db.Query(ctx, "chunks", []float32{0.1, 0.2}, 1)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(results, 1)
	assert.Equal("doc-1", results[0].ID)
	assert.Equal("alpha content", results[0].Content)
	assert.Equal("en", results[0].Metadata["lang"])
	assert.NotContains(results[0].Metadata, "original_id")
	assert.NotContains(results[0].Metadata, "text")
}

func TestQdrantCreateCollectionIdempotent(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()

	putCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result":{"points_count":3,"config":{"params":{"vectors":{"size":128,"distance":"Cosine"}}}}}`))
		case http.MethodPut:
			putCalls++
			w.Write([]byte(`{"result":true}`))
		}
	}))
	defer srv.Close()

	db, err := NewQdrantVectorDB(vector.Config{
		DBType: vector.DBTypeQdrant,
		URL:    srv.URL,
	})
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer db.Close()

	if err := db.CreateCollection(ctx, "chunks", 128, vector.DistanceCosine); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Zero(putCalls, "existing collection is left untouched")
}
