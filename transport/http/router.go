package http

import (
	"github.com/gin-gonic/gin"

	"github.com/flarexio/ragindex"
)

func AddRouters(r *gin.Engine, endpoints ragindex.EndpointSet) {
	api := r.Group("/api")
	{
		api.POST("/indexer/run", RunIndexerHandler(endpoints.RunIndexer))
		api.POST("/index", IndexChunksHandler(endpoints.IndexChunks))
		api.POST("/query", QueryHandler(endpoints.Query))
	}
}
