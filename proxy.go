package ragindex

import (
	"context"
	"errors"

	"github.com/flarexio/ragindex/vector"
)

// ProxyMiddleware turns a remote EndpointSet into a Service, so an API
// node can dispatch indexing jobs to a worker over the wire instead of
// running them in process.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) RunIndexer(ctx context.Context, configs []IndexRunConfig, chunks []ChunkRecord, outputDir string) ([]RunSummary, error) {
	req := RunIndexerRequest{
		Configs:   configs,
		Chunks:    chunks,
		OutputDir: outputDir,
	}

	resp, err := mw.endpoints.RunIndexer(ctx, req)
	if err != nil {
		return nil, err
	}

	summaries, ok := resp.([]RunSummary)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return summaries, nil
}

func (mw *proxyMiddleware) IndexChunks(ctx context.Context, cfg IndexRunConfig, chunks []ChunkRecord) ([]IndexResultRow, error) {
	req := IndexChunksRequest{
		Config: cfg,
		Chunks: chunks,
	}

	resp, err := mw.endpoints.IndexChunks(ctx, req)
	if err != nil {
		return nil, err
	}

	rows, ok := resp.([]IndexResultRow)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return rows, nil
}

func (mw *proxyMiddleware) Query(ctx context.Context, cfg IndexRunConfig, query string, k ...int) ([]vector.SearchResult, error) {
	n := 0
	if len(k) > 0 {
		n = k[0]
	}

	req := QueryRequest{
		Config: cfg,
		Query:  query,
		K:      n,
	}

	resp, err := mw.endpoints.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	results, ok := resp.([]vector.SearchResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return results, nil
}
