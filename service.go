package ragindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/flarexio/ragindex/embedding"
	"github.com/flarexio/ragindex/vector"
)

// dimensionProbe is the short string embedded once per
// collection-creation attempt to observe the model's vector width.
const dimensionProbe = "test"

// Service defines the core logic of the indexing layer.
type Service interface {

	// Close gracefully shuts down the service.
	Close() error

	// RunIndexer executes every run config against the chunk table and
	// persists per-config artifacts plus a run summary under outputDir.
	RunIndexer(ctx context.Context, configs []IndexRunConfig, chunks []ChunkRecord, outputDir string) ([]RunSummary, error)

	// IndexChunks runs the vectordb index module for a single config and
	// returns the enriched result rows.
	IndexChunks(ctx context.Context, cfg IndexRunConfig, chunks []ChunkRecord) ([]IndexResultRow, error)

	// Query embeds the query text and searches the config's collection.
	Query(ctx context.Context, cfg IndexRunConfig, query string, k ...int) ([]vector.SearchResult, error)
}

type ServiceMiddleware func(Service) Service

// BackendFactory opens a fresh backend handle for one config run.
// Handles are never shared across concurrently executing configs.
type BackendFactory func(cfg vector.Config) (vector.VectorDB, error)

func NewService(cfg Config, backends BackendFactory, embeddings embedding.Resolver) Service {
	log := zap.L().With(
		zap.String("service", "ragindex"),
	)

	return &service{
		cfg:        cfg,
		backends:   backends,
		embeddings: embeddings,
		log:        log,
	}
}

type service struct {
	cfg        Config
	backends   BackendFactory
	embeddings embedding.Resolver
	log        *zap.Logger
}

func (svc *service) Close() error {
	return nil
}

func (svc *service) RunIndexer(ctx context.Context, configs []IndexRunConfig, chunks []ChunkRecord, outputDir string) ([]RunSummary, error) {
	log := svc.log.With(
		zap.String("action", "run_indexer"),
		zap.Int("configs", len(configs)),
		zap.Int("chunks", len(chunks)),
	)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(configs))

	for i, cfg := range configs {
		log := log.With(
			zap.Int("config", i),
			zap.String("db_type", string(cfg.Backend.DBType)),
		)

		summary := RunSummary{
			ModuleName:   "vectordb_index",
			ModuleParams: cfg.Params,
		}

		start := time.Now()
		rows, err := svc.IndexChunks(ctx, cfg, chunks)
		elapsed := time.Since(start)

		if err != nil {
			// A failing config becomes a summary row; sibling configs
			// keep running.
			log.Error(err.Error())

			summary.Error = err.Error()
			summaries = append(summaries, summary)
			continue
		}

		if len(chunks) > 0 {
			summary.ExecutionTime = elapsed.Seconds() / float64(len(chunks))
		}

		filename := fmt.Sprintf("index_%d.jsonl", i)
		if err := WriteResultRows(filepath.Join(outputDir, filename), rows); err != nil {
			return nil, err
		}

		summary.Filename = filename
		summaries = append(summaries, summary)

		log.Info("config indexed", zap.Int("rows", len(rows)))
	}

	if err := WriteSummary(filepath.Join(outputDir, "index_summary.csv"), summaries); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (svc *service) IndexChunks(ctx context.Context, cfg IndexRunConfig, chunks []ChunkRecord) ([]IndexResultRow, error) {
	if cfg.ModuleType != "" && cfg.ModuleType != ModuleVectorDB {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %s", ErrUnsupportedModuleType, cfg.ModuleType)}
	}

	if cfg.IndexType != IndexTypeVector {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %s", ErrUnsupportedIndexType, cfg.IndexType)}
	}

	provider, err := svc.embeddings.Resolve(cfg.EmbeddingModel)
	if err != nil {
		if errors.Is(err, embedding.ErrUnknownModel) {
			return nil, &ConfigError{Err: err}
		}

		return nil, err
	}

	// The resolver may have substituted the mock provider, so the
	// effective model name comes from the provider.
	model := provider.Model()

	collection := cfg.CollectionName
	if collection == "" {
		collection = DeriveCollectionName(model)
	}

	backend, err := svc.resolveBackend(cfg)
	if err != nil {
		return nil, err
	}

	log := svc.log.With(
		zap.String("action", "index_chunks"),
		zap.String("db_type", string(backend.DBType)),
		zap.String("embedding_model", model),
		zap.String("collection", collection),
	)

	db, err := svc.backends(backend)
	if err != nil {
		if errors.Is(err, vector.ErrUnknownDBType) {
			return nil, &ConfigError{Err: err}
		}

		return nil, err
	}
	defer db.Close()

	if _, err := svc.ensureCollection(ctx, db, provider, cfg, backend, collection); err != nil {
		return nil, err
	}

	rows := make([]IndexResultRow, len(chunks))

	if len(chunks) > 0 {
		contents := make([]string, len(chunks))
		for i, chunk := range chunks {
			contents[i] = chunk.Contents
		}

		embeddings, err := provider.EmbedDocuments(ctx, contents)
		if err != nil {
			return nil, err
		}

		docs := make([]vector.Document, len(chunks))
		for i, chunk := range chunks {
			docs[i] = vector.Document{
				ID:        chunk.DocID,
				Metadata:  enrichMetadata(chunk, backend.DBType, model, collection),
				Content:   chunk.Contents,
				Embedding: embeddings[i],
			}
		}

		if err := db.Upsert(ctx, collection, docs); err != nil {
			return nil, err
		}

		for i, chunk := range chunks {
			rows[i] = IndexResultRow{
				DocID:     chunk.DocID,
				IndexID:   chunk.DocID,
				IndexType: IndexTypeVector,
				Metadata:  docs[i].Metadata,
			}
		}
	}

	log.Info("chunks indexed", zap.Int("count", len(chunks)))

	return rows, nil
}

func (svc *service) Query(ctx context.Context, cfg IndexRunConfig, query string, k ...int) ([]vector.SearchResult, error) {
	if cfg.CollectionName == "" {
		return nil, &ConfigError{Err: ErrCollectionRequired}
	}

	n := 5
	if len(k) > 0 && k[0] > 0 {
		n = k[0]
	}

	provider, err := svc.embeddings.Resolve(cfg.EmbeddingModel)
	if err != nil {
		if errors.Is(err, embedding.ErrUnknownModel) {
			return nil, &ConfigError{Err: err}
		}

		return nil, err
	}

	backend, err := svc.resolveBackend(cfg)
	if err != nil {
		return nil, err
	}

	db, err := svc.backends(backend)
	if err != nil {
		if errors.Is(err, vector.ErrUnknownDBType) {
			return nil, &ConfigError{Err: err}
		}

		return nil, err
	}
	defer db.Close()

	embedded, err := provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return db.Query(ctx, cfg.CollectionName, embedded, n)
}

// resolveBackend returns the run config's backend block, falling back
// to the first block of the service configuration when the run config
// carries none.
func (svc *service) resolveBackend(cfg IndexRunConfig) (vector.Config, error) {
	if cfg.Backend.DBType != "" {
		return cfg.Backend, nil
	}

	backend, ok := svc.cfg.Backend("")
	if !ok {
		return vector.Config{}, configErrf("no vectordb block configured")
	}

	return backend, nil
}

// ensureCollection makes the collection usable and returns its
// dimension. A new collection gets the explicitly configured dimension
// or, failing that, the width of a single probe embedding. An existing
// collection's stored dimension is ground truth; disagreement with the
// explicit config or with the current model's probe width fails before
// any document is upserted.
func (svc *service) ensureCollection(ctx context.Context, db vector.VectorDB, provider embedding.Provider, cfg IndexRunConfig, backend vector.Config, collection string) (int, error) {
	exists, err := db.CollectionExists(ctx, collection)
	if err != nil {
		return 0, err
	}

	if exists {
		desc, err := db.DescribeCollection(ctx, collection)
		if err != nil {
			return 0, err
		}

		if cfg.Dimension > 0 && cfg.Dimension != desc.Dimension {
			return 0, configErrf("dimension %d conflicts with existing collection %s (dimension %d)",
				cfg.Dimension, collection, desc.Dimension)
		}

		probe, err := provider.EmbedQuery(ctx, dimensionProbe)
		if err != nil {
			return 0, err
		}

		if len(probe) != desc.Dimension {
			return 0, configErrf("embedding model %s produces dimension %d, existing collection %s has dimension %d",
				provider.Model(), len(probe), collection, desc.Dimension)
		}

		return desc.Dimension, nil
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		probe, err := provider.EmbedQuery(ctx, dimensionProbe)
		if err != nil {
			return 0, err
		}

		dimension = len(probe)

		svc.log.Info("auto-detected embedding dimension",
			zap.String("embedding_model", provider.Model()),
			zap.Int("dimension", dimension),
		)
	}

	metric := backend.Metric
	if metric == "" {
		metric = vector.DistanceCosine
	}

	if err := db.CreateCollection(ctx, collection, dimension, metric); err != nil {
		return 0, err
	}

	return dimension, nil
}

func enrichMetadata(chunk ChunkRecord, dbType vector.DBType, model string, collection string) map[string]string {
	metadata := make(map[string]string, len(chunk.Metadata)+4)
	for key, value := range chunk.Metadata {
		metadata[key] = value
	}

	if chunk.Path != "" {
		metadata["path"] = chunk.Path
	}

	metadata["vectordb_type"] = string(dbType)
	metadata["embedding_model"] = model
	metadata["collection_name"] = collection
	metadata["index_type"] = IndexTypeVector

	return metadata
}
