package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/flarexio/ragindex/vector"
)

var ErrCollectionNotFound = errors.New("collection not found")

// NewChromemVectorDB opens the embedded chromem store. Chromem carries
// no dimension metadata of its own, so collection descriptors are kept
// in a sidecar registry, persisted next to the vectors when the store
// is persistent.
func NewChromemVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	var db *chromem.DB
	if !cfg.Persistent {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, err
		}

		db = d
	}

	v := &chromemVectorDB{
		db:          db,
		descriptors: make(map[string]vector.CollectionDescriptor),
	}

	if cfg.Persistent {
		v.registryPath = filepath.Join(cfg.Path, "collections.json")
		if err := v.loadRegistry(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

type chromemVectorDB struct {
	db           *chromem.DB
	registryPath string

	descriptors map[string]vector.CollectionDescriptor
	mu          sync.RWMutex
}

func (v *chromemVectorDB) CollectionExists(ctx context.Context, name string) (bool, error) {
	return v.db.GetCollection(name, noEmbedding) != nil, nil
}

func (v *chromemVectorDB) DescribeCollection(ctx context.Context, name string) (vector.CollectionDescriptor, error) {
	c := v.db.GetCollection(name, noEmbedding)
	if c == nil {
		return vector.CollectionDescriptor{}, ErrCollectionNotFound
	}

	v.mu.RLock()
	desc, ok := v.descriptors[name]
	v.mu.RUnlock()

	if !ok {
		desc = vector.CollectionDescriptor{
			Name:        name,
			BackendType: vector.DBTypeChromem,
		}
	}

	desc.DocumentCount = c.Count()

	return desc, nil
}

func (v *chromemVectorDB) CreateCollection(ctx context.Context, name string, dimension int, metric vector.DistanceMetric) error {
	// Creating an existing collection is a no-op; chromem's own
	// CreateCollection would replace it and drop its documents.
	if v.db.GetCollection(name, noEmbedding) != nil {
		return nil
	}

	if _, err := v.db.CreateCollection(name, nil, noEmbedding); err != nil {
		return &vector.BackendError{Backend: vector.DBTypeChromem, Op: "create_collection", Err: err}
	}

	v.mu.Lock()
	v.descriptors[name] = vector.CollectionDescriptor{
		Name:        name,
		Dimension:   dimension,
		BackendType: vector.DBTypeChromem,
	}
	err := v.saveRegistry()
	v.mu.Unlock()

	return err
}

func (v *chromemVectorDB) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	c := v.db.GetCollection(collection, noEmbedding)
	if c == nil {
		return ErrCollectionNotFound
	}

	// AddDocument overwrites an existing ID, so re-upserting never
	// duplicates.
	for _, doc := range docs {
		document := chromem.Document{
			ID:        doc.ID,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
			Content:   doc.Content,
		}

		if err := c.AddDocument(ctx, document); err != nil {
			return &vector.BackendError{Backend: vector.DBTypeChromem, Op: "upsert", Err: err}
		}
	}

	return nil
}

func (v *chromemVectorDB) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]vector.SearchResult, error) {
	c := v.db.GetCollection(collection, noEmbedding)
	if c == nil {
		return nil, ErrCollectionNotFound
	}

	if topK > c.Count() {
		topK = c.Count()
	}

	if topK == 0 {
		return nil, nil
	}

	results, err := c.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, &vector.BackendError{Backend: vector.DBTypeChromem, Op: "query", Err: err}
	}

	docs := make([]vector.SearchResult, len(results))
	for i, result := range results {
		docs[i] = vector.SearchResult{
			ID:       result.ID,
			Score:    result.Similarity,
			Content:  result.Content,
			Metadata: result.Metadata,
		}
	}

	return docs, nil
}

func (v *chromemVectorDB) Close() error {
	return nil
}

func (v *chromemVectorDB) loadRegistry() error {
	data, err := os.ReadFile(v.registryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	return json.Unmarshal(data, &v.descriptors)
}

// saveRegistry expects v.mu to be held.
func (v *chromemVectorDB) saveRegistry() error {
	if v.registryPath == "" {
		return nil
	}

	data, err := json.Marshal(v.descriptors)
	if err != nil {
		return err
	}

	return os.WriteFile(v.registryPath, data, 0644)
}

// noEmbedding satisfies chromem's embedding hook. Embeddings always
// arrive precomputed, so the hook must never run.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings must be precomputed")
}
