package ragindex

import (
	"context"

	"go.uber.org/zap"

	"github.com/flarexio/ragindex/vector"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "ragindex"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) RunIndexer(ctx context.Context, configs []IndexRunConfig, chunks []ChunkRecord, outputDir string) ([]RunSummary, error) {
	log := mw.log.With(
		zap.String("action", "run_indexer"),
		zap.Int("configs", len(configs)),
		zap.Int("chunks", len(chunks)),
		zap.String("output_dir", outputDir),
	)

	summaries, err := mw.next.RunIndexer(ctx, configs, chunks, outputDir)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	failed := 0
	for _, summary := range summaries {
		if summary.Error != "" {
			failed++
		}
	}

	log.Info("indexer run finished",
		zap.Int("succeeded", len(summaries)-failed),
		zap.Int("failed", failed),
	)

	return summaries, nil
}

func (mw *loggingMiddleware) IndexChunks(ctx context.Context, cfg IndexRunConfig, chunks []ChunkRecord) ([]IndexResultRow, error) {
	log := mw.log.With(
		zap.String("action", "index_chunks"),
		zap.String("db_type", string(cfg.Backend.DBType)),
		zap.String("embedding_model", cfg.EmbeddingModel),
		zap.Int("chunks", len(chunks)),
	)

	rows, err := mw.next.IndexChunks(ctx, cfg, chunks)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("chunks indexed", zap.Int("rows", len(rows)))
	return rows, nil
}

func (mw *loggingMiddleware) Query(ctx context.Context, cfg IndexRunConfig, query string, k ...int) ([]vector.SearchResult, error) {
	log := mw.log.With(
		zap.String("action", "query"),
		zap.String("collection", cfg.CollectionName),
		zap.String("query", query),
	)

	results, err := mw.next.Query(ctx, cfg, query, k...)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("collection queried", zap.Int("count", len(results)))
	return results, nil
}
