package nats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"

	"github.com/flarexio/ragindex"
	"github.com/flarexio/ragindex/vector"
)

// MakeEndpoints builds a client-side EndpointSet that dispatches work
// to a remote worker's micro service under the given subject prefix.
func MakeEndpoints(nc *nats.Conn, prefix string) *ragindex.EndpointSet {
	return &ragindex.EndpointSet{
		RunIndexer:  RunIndexerEndpoint(nc, prefix+".run_indexer"),
		IndexChunks: IndexChunksEndpoint(nc, prefix+".index_chunks"),
		Query:       QueryEndpoint(nc, prefix+".query"),
	}
}

func RunIndexerEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ragindex.RunIndexerRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		var summaries []ragindex.RunSummary
		if err := json.Unmarshal(resp.Data, &summaries); err != nil {
			return nil, err
		}

		return summaries, nil
	}
}

func IndexChunksEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ragindex.IndexChunksRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		var rows []ragindex.IndexResultRow
		if err := json.Unmarshal(resp.Data, &rows); err != nil {
			return nil, err
		}

		return rows, nil
	}
}

func QueryEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ragindex.QueryRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		var results []vector.SearchResult
		if err := json.Unmarshal(resp.Data, &results); err != nil {
			return nil, err
		}

		return results, nil
	}
}
