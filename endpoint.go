package ragindex

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	RunIndexer  endpoint.Endpoint
	IndexChunks endpoint.Endpoint
	Query       endpoint.Endpoint
}

type RunIndexerRequest struct {
	Configs   []IndexRunConfig `json:"configs"`
	Chunks    []ChunkRecord    `json:"chunks"`
	OutputDir string           `json:"output_dir"`
}

func RunIndexerEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(RunIndexerRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.RunIndexer(ctx, req.Configs, req.Chunks, req.OutputDir)
	}
}

type IndexChunksRequest struct {
	Config IndexRunConfig `json:"config"`
	Chunks []ChunkRecord  `json:"chunks"`
}

func IndexChunksEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IndexChunksRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.IndexChunks(ctx, req.Config, req.Chunks)
	}
}

type QueryRequest struct {
	Config IndexRunConfig `json:"config"`
	Query  string         `json:"query"`
	K      int            `json:"k,omitempty"`
}

func QueryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(QueryRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Query(ctx, req.Config, req.Query, req.K)
	}
}
