package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/flarexio/ragindex/vector"
)

const (
	controlPlaneURL    = "https://api.pinecone.io"
	defaultIngestBatch = 64
)

var ErrMissingAPIKey = errors.New("pinecone api key is required")

// NewPineconeVectorDB returns a client for the Pinecone managed
// service. Collections map to serverless indexes; the data-plane host
// of each index is resolved through the control plane and cached.
func NewPineconeVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cloud := cfg.Cloud
	if cloud == "" {
		cloud = "aws"
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	ingestBatch := cfg.IngestBatch
	if ingestBatch <= 0 {
		ingestBatch = defaultIngestBatch
	}

	return &pineconeVectorDB{
		apiKey:      cfg.APIKey,
		cloud:       cloud,
		region:      region,
		ingestBatch: ingestBatch,
		hosts:       make(map[string]string),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type pineconeVectorDB struct {
	apiKey      string
	cloud       string
	region      string
	ingestBatch int
	client      *http.Client

	hosts map[string]string
	mu    sync.Mutex
}

type indexInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
}

func (v *pineconeVectorDB) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, _, err := v.do(ctx, http.MethodGet, controlPlaneURL+"/indexes/"+name, nil)
	if err != nil {
		return false, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "collection_exists", Err: err}
	}

	return status == http.StatusOK, nil
}

func (v *pineconeVectorDB) DescribeCollection(ctx context.Context, name string) (vector.CollectionDescriptor, error) {
	info, err := v.describeIndex(ctx, name)
	if err != nil {
		return vector.CollectionDescriptor{}, err
	}

	desc := vector.CollectionDescriptor{
		Name:        name,
		Dimension:   info.Dimension,
		BackendType: vector.DBTypePinecone,
	}

	status, body, err := v.do(ctx, http.MethodPost, "https://"+info.Host+"/describe_index_stats", map[string]any{})
	if err != nil {
		return vector.CollectionDescriptor{}, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "describe_collection", Err: err}
	}

	if status == http.StatusOK {
		var stats struct {
			TotalVectorCount int `json:"totalVectorCount"`
		}

		if err := json.Unmarshal(body, &stats); err == nil {
			desc.DocumentCount = stats.TotalVectorCount
		}
	}

	return desc, nil
}

func (v *pineconeVectorDB) CreateCollection(ctx context.Context, name string, dimension int, metric vector.DistanceMetric) error {
	exists, err := v.CollectionExists(ctx, name)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	m := "cosine"
	switch metric {
	case vector.DistanceDot:
		m = "dotproduct"
	case vector.DistanceL2:
		m = "euclidean"
	}

	body := map[string]any{
		"name":      name,
		"dimension": dimension,
		"metric":    m,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  v.cloud,
				"region": v.region,
			},
		},
	}

	status, data, err := v.do(ctx, http.MethodPost, controlPlaneURL+"/indexes", body)
	if err != nil {
		return &vector.BackendError{Backend: vector.DBTypePinecone, Op: "create_collection", Err: err}
	}

	if status != http.StatusCreated && status != http.StatusOK {
		err := fmt.Errorf("status %d: %s", status, string(data))
		return &vector.BackendError{Backend: vector.DBTypePinecone, Op: "create_collection", Err: err}
	}

	return nil
}

func (v *pineconeVectorDB) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	host, err := v.host(ctx, collection)
	if err != nil {
		return err
	}

	for start := 0; start < len(docs); start += v.ingestBatch {
		end := start + v.ingestBatch
		if end > len(docs) {
			end = len(docs)
		}

		vectors := make([]map[string]any, 0, end-start)
		for _, doc := range docs[start:end] {
			metadata := map[string]string{
				"text": doc.Content,
			}

			for key, value := range doc.Metadata {
				metadata[key] = value
			}

			vectors = append(vectors, map[string]any{
				"id":       doc.ID,
				"values":   doc.Embedding,
				"metadata": metadata,
			})
		}

		body := map[string]any{"vectors": vectors}

		status, data, err := v.do(ctx, http.MethodPost, "https://"+host+"/vectors/upsert", body)
		if err != nil {
			return &vector.BackendError{Backend: vector.DBTypePinecone, Op: "upsert", Err: err}
		}

		if status != http.StatusOK {
			err := fmt.Errorf("status %d: %s", status, string(data))
			return &vector.BackendError{Backend: vector.DBTypePinecone, Op: "upsert", Err: err}
		}
	}

	return nil
}

func (v *pineconeVectorDB) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]vector.SearchResult, error) {
	host, err := v.host(ctx, collection)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":          embedding,
		"topK":            topK,
		"includeMetadata": true,
	}

	status, data, err := v.do(ctx, http.MethodPost, "https://"+host+"/query", body)
	if err != nil {
		return nil, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "query", Err: err}
	}

	if status != http.StatusOK {
		err := fmt.Errorf("status %d: %s", status, string(data))
		return nil, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "query", Err: err}
	}

	var resp struct {
		Matches []struct {
			ID       string            `json:"id"`
			Score    float32           `json:"score"`
			Metadata map[string]string `json:"metadata"`
		} `json:"matches"`
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "query", Err: err}
	}

	results := make([]vector.SearchResult, len(resp.Matches))
	for i, match := range resp.Matches {
		results[i] = vector.SearchResult{
			ID:       match.ID,
			Score:    match.Score,
			Content:  match.Metadata["text"],
			Metadata: match.Metadata,
		}
	}

	return results, nil
}

func (v *pineconeVectorDB) Close() error {
	v.client.CloseIdleConnections()
	return nil
}

// host returns the cached data-plane host for an index, resolving it
// through the control plane on first use.
func (v *pineconeVectorDB) host(ctx context.Context, name string) (string, error) {
	v.mu.Lock()
	h, ok := v.hosts[name]
	v.mu.Unlock()

	if ok {
		return h, nil
	}

	info, err := v.describeIndex(ctx, name)
	if err != nil {
		return "", err
	}

	return info.Host, nil
}

func (v *pineconeVectorDB) describeIndex(ctx context.Context, name string) (indexInfo, error) {
	status, body, err := v.do(ctx, http.MethodGet, controlPlaneURL+"/indexes/"+name, nil)
	if err != nil {
		return indexInfo{}, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "describe_collection", Err: err}
	}

	if status != http.StatusOK {
		err := fmt.Errorf("status %d: %s", status, string(body))
		return indexInfo{}, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "describe_collection", Err: err}
	}

	var info indexInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return indexInfo{}, &vector.BackendError{Backend: vector.DBTypePinecone, Op: "describe_collection", Err: err}
	}

	v.mu.Lock()
	v.hosts[name] = info.Host
	v.mu.Unlock()

	return info, nil
}

// do issues one HTTP call with a single retry on transport failure.
func (v *pineconeVectorDB) do(ctx context.Context, method string, url string, body any) (int, []byte, error) {
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

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Api-Key", v.apiKey)

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
