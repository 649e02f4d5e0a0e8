package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/ragindex"
)

func AddEndpoints(group micro.Group, endpoints ragindex.EndpointSet) {
	group.AddEndpoint("run_indexer", RunIndexerHandler(endpoints.RunIndexer))
	group.AddEndpoint("index_chunks", IndexChunksHandler(endpoints.IndexChunks))
	group.AddEndpoint("query", QueryHandler(endpoints.Query))
}
