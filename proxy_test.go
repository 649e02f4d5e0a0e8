package ragindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/ragindex/vector"
)

type proxyTestSuite struct {
	suite.Suite
	backend *fakeBackend
	svc     Service
}

func (suite *proxyTestSuite) SetupTest() {
	suite.backend = newFakeBackend()

	factory := func(cfg vector.Config) (vector.VectorDB, error) {
		return suite.backend, nil
	}

	local := NewService(Config{}, factory, &mockResolver{})

	endpoints := &EndpointSet{
		RunIndexer:  RunIndexerEndpoint(local),
		IndexChunks: IndexChunksEndpoint(local),
		Query:       QueryEndpoint(local),
	}

	var svc Service
	suite.svc = ProxyMiddleware(endpoints)(svc)
}

func (suite *proxyTestSuite) config() IndexRunConfig {
	return IndexRunConfig{
		ModuleType:     ModuleVectorDB,
		IndexType:      IndexTypeVector,
		EmbeddingModel: "mock",
		CollectionName: "chunks",
		Backend: vector.Config{
			DBType: vector.DBTypeChromem,
		},
	}
}

func (suite *proxyTestSuite) TestIndexChunksRoundTrip() {
	ctx := context.Background()

	rows, err := suite.svc.IndexChunks(ctx, suite.config(), chunkTable(3))
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(rows, 3)
	suite.Equal(1, suite.backend.createCalls)
	suite.Len(suite.backend.collections["chunks"].docs, 3)
}

func (suite *proxyTestSuite) TestRunIndexerRoundTrip() {
	ctx := context.Background()
	outputDir := suite.T().TempDir()

	summaries, err := suite.svc.RunIndexer(ctx, []IndexRunConfig{suite.config()}, chunkTable(2), outputDir)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(summaries, 1)
	suite.Empty(summaries[0].Error)
	suite.Equal("index_0.jsonl", summaries[0].Filename)
}

func (suite *proxyTestSuite) TestQueryRoundTrip() {
	ctx := context.Background()

	cfg := suite.config()
	if _, err := suite.svc.IndexChunks(ctx, cfg, chunkTable(4)); err != nil {
		suite.Fail(err.Error())
		return
	}

	results, err := suite.svc.Query(ctx, cfg, "content", 2)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(results, 2)
}

func (suite *proxyTestSuite) TestErrorPassesThrough() {
	ctx := context.Background()

	cfg := suite.config()
	cfg.IndexType = "bm25"

	_, err := suite.svc.IndexChunks(ctx, cfg, chunkTable(1))
	suite.ErrorIs(err, ErrUnsupportedIndexType)
}

func TestProxyTestSuite(t *testing.T) {
	suite.Run(t, new(proxyTestSuite))
}
