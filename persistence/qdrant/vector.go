package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flarexio/ragindex/vector"
)

const defaultIngestBatch = 64

// idNamespace seeds the deterministic UUIDs Qdrant requires as point
// IDs. The same document ID always maps to the same point, which is
// what makes upsert idempotent here.
var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewQdrantVectorDB returns a REST client for a self-hosted Qdrant
// server. Every call is bounded by the HTTP client timeout and retried
// once on transport failure.
func NewQdrantVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	url := cfg.URL
	if url == "" {
		url = "http://localhost:6333"
	}

	ingestBatch := cfg.IngestBatch
	if ingestBatch <= 0 {
		ingestBatch = defaultIngestBatch
	}

	return &qdrantVectorDB{
		url:         url,
		apiKey:      cfg.APIKey,
		ingestBatch: ingestBatch,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

type qdrantVectorDB struct {
	url         string
	apiKey      string
	ingestBatch int
	client      *http.Client
}

func (v *qdrantVectorDB) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, _, err := v.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return false, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "collection_exists", Err: err}
	}

	return status == http.StatusOK, nil
}

func (v *qdrantVectorDB) DescribeCollection(ctx context.Context, name string) (vector.CollectionDescriptor, error) {
	status, body, err := v.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return vector.CollectionDescriptor{}, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "describe_collection", Err: err}
	}

	if status != http.StatusOK {
		err := fmt.Errorf("status %d: %s", status, string(body))
		return vector.CollectionDescriptor{}, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "describe_collection", Err: err}
	}

	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return vector.CollectionDescriptor{}, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "describe_collection", Err: err}
	}

	return vector.CollectionDescriptor{
		Name:          name,
		Dimension:     resp.Result.Config.Params.Vectors.Size,
		BackendType:   vector.DBTypeQdrant,
		DocumentCount: resp.Result.PointsCount,
	}, nil
}

func (v *qdrantVectorDB) CreateCollection(ctx context.Context, name string, dimension int, metric vector.DistanceMetric) error {
	exists, err := v.CollectionExists(ctx, name)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	distance := "Cosine"
	switch metric {
	case vector.DistanceDot:
		distance = "Dot"
	case vector.DistanceL2:
		distance = "Euclid"
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": distance,
		},
	}

	status, data, err := v.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "create_collection", Err: err}
	}

	if status != http.StatusOK {
		err := fmt.Errorf("status %d: %s", status, string(data))
		return &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "create_collection", Err: err}
	}

	return nil
}

func (v *qdrantVectorDB) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	for start := 0; start < len(docs); start += v.ingestBatch {
		end := start + v.ingestBatch
		if end > len(docs) {
			end = len(docs)
		}

		points := make([]map[string]any, 0, end-start)
		for _, doc := range docs[start:end] {
			payload := map[string]any{
				"original_id": doc.ID,
				"text":        doc.Content,
			}

			for key, value := range doc.Metadata {
				payload[key] = value
			}

			points = append(points, map[string]any{
				"id":      uuid.NewSHA1(idNamespace, []byte(doc.ID)).String(),
				"vector":  doc.Embedding,
				"payload": payload,
			})
		}

		body := map[string]any{"points": points}

		status, data, err := v.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body)
		if err != nil {
			return &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "upsert", Err: err}
		}

		if status != http.StatusOK {
			err := fmt.Errorf("status %d: %s", status, string(data))
			return &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "upsert", Err: err}
		}
	}

	return nil
}

func (v *qdrantVectorDB) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]vector.SearchResult, error) {
	body := map[string]any{
		"vector":       embedding,
		"limit":        topK,
		"with_payload": true,
	}

	status, data, err := v.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body)
	if err != nil {
		return nil, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "query", Err: err}
	}

	if status != http.StatusOK {
		err := fmt.Errorf("status %d: %s", status, string(data))
		return nil, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "query", Err: err}
	}

	var resp struct {
		Result []struct {
			ID      any               `json:"id"`
			Score   float32           `json:"score"`
			Payload map[string]string `json:"payload"`
		} `json:"result"`
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &vector.BackendError{Backend: vector.DBTypeQdrant, Op: "query", Err: err}
	}

	results := make([]vector.SearchResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		result := vector.SearchResult{
			Score: hit.Score,
		}

		if id, ok := hit.Payload["original_id"]; ok {
			result.ID = id
		} else {
			result.ID = fmt.Sprint(hit.ID)
		}

		result.Content = hit.Payload["text"]

		// original_id and text are wire bookkeeping, not chunk metadata.
		metadata := make(map[string]string, len(hit.Payload))
		for key, value := range hit.Payload {
			if key == "original_id" || key == "text" {
				continue
			}

			metadata[key] = value
		}

		result.Metadata = metadata

		results = append(results, result)
	}

	return results, nil
}

func (v *qdrantVectorDB) Close() error {
	v.client.CloseIdleConnections()
	return nil
}

// do issues one HTTP call with a single retry on transport failure. A
// non-2xx status is returned to the caller, not retried.
func (v *qdrantVectorDB) do(ctx context.Context, method string, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}

		payload = data
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, v.url+path, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		if v.apiKey != "" {
			req.Header.Set("api-key", v.apiKey)
		}

		resp, err := v.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		return resp.StatusCode, data, nil
	}

	return 0, nil, lastErr
}
