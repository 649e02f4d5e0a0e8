package ragindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/ragindex/vector"
)

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `vectordb:
  - name: local
    db_type: chromem
    persistent: true
    path: ./vectors
  - name: server
    db_type: qdrant
    url: http://localhost:6333
indexers:
  - module_type: vectordb
    index_type: vector
    embedding_model: mock
    vectordb: server`

	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	if err := cfg.Validate(); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(cfg.VectorDBs, 2)
	assert.Equal(vector.DBTypeChromem, cfg.VectorDBs[0].DBType)
	assert.True(cfg.VectorDBs[0].Persistent)

	assert.Len(cfg.Indexers, 1)
	assert.Equal(ModuleVectorDB, cfg.Indexers[0].ModuleType)
	assert.Equal("server", cfg.Indexers[0].Params["vectordb"])
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	var empty Config
	err := empty.Validate()
	assert.True(IsConfigError(err), "missing vectordb key")

	missingType := Config{
		VectorDBs: []vector.Config{{Name: "local"}},
	}
	err = missingType.Validate()
	assert.True(IsConfigError(err), "missing db_type")

	unknownType := Config{
		VectorDBs: []vector.Config{{DBType: "faiss"}},
	}
	err = unknownType.Validate()
	assert.ErrorIs(err, vector.ErrUnknownDBType)
}

func TestExpandParams(t *testing.T) {
	assert := assert.New(t)

	params := map[string]any{
		"embedding_model": []any{"mock", "openai_embed_3_small"},
		"vectordb":        []any{"local", "server"},
		"index_type":      "vector",
	}

	combos := ExpandParams(params)
	assert.Len(combos, 4)

	seen := make(map[string]bool)
	for _, combo := range combos {
		assert.Equal("vector", combo["index_type"])
		seen[combo["embedding_model"].(string)+"/"+combo["vectordb"].(string)] = true
	}

	assert.Len(seen, 4, "every combination is distinct")
}

func TestBuildRunConfigs(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{
		VectorDBs: []vector.Config{
			{Name: "local", DBType: vector.DBTypeChromem},
			{Name: "server", DBType: vector.DBTypeQdrant, URL: "http://localhost:6333"},
		},
		Indexers: []IndexerSpec{
			{
				ModuleType: ModuleVectorDB,
				Params: map[string]any{
					"embedding_model": []any{"mock", "openai_embed_3_small"},
					"vectordb":        "server",
					"dimension":       1536,
				},
			},
		},
	}

	configs, err := BuildRunConfigs(cfg)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(configs, 2)
	for _, rc := range configs {
		assert.Equal(IndexTypeVector, rc.IndexType)
		assert.Equal(vector.DBTypeQdrant, rc.Backend.DBType)
		assert.Equal(1536, rc.Dimension)
	}
}

func TestBuildRunConfigsUnknownBackend(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{
		VectorDBs: []vector.Config{
			{Name: "local", DBType: vector.DBTypeChromem},
		},
		Indexers: []IndexerSpec{
			{
				ModuleType: ModuleVectorDB,
				Params: map[string]any{
					"vectordb": "missing",
				},
			},
		},
	}

	_, err := BuildRunConfigs(cfg)
	assert.True(IsConfigError(err))
}

func TestDeriveCollectionName(t *testing.T) {
	assert := assert.New(t)

	first := DeriveCollectionName("mock")
	second := DeriveCollectionName("mock")

	assert.True(strings.HasPrefix(first, "mock_"))
	assert.NotEqual(first, second, "random suffix avoids collisions")
}
