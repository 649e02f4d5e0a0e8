package ragindex

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/flarexio/ragindex/embedding"
	"github.com/flarexio/ragindex/vector"
)

// Config is the declarative run configuration. The vectordb key holds
// an ordered list of backend blocks discriminated by db_type; the
// indexers key holds module specs whose list-valued parameters expand
// into a cross-product of run configs.
type Config struct {
	VectorDBs []vector.Config `yaml:"vectordb"`
	Indexers  []IndexerSpec   `yaml:"indexers"`
}

// IndexerSpec is one module block. All keys besides module_type are
// free-form parameters; a list value means "run one config per
// element".
type IndexerSpec struct {
	ModuleType string         `yaml:"module_type"`
	Params     map[string]any `yaml:",inline"`
}

func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, configErrf("invalid config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	if len(cfg.VectorDBs) == 0 {
		return configErrf("vectordb key is missing or empty")
	}

	for i, block := range cfg.VectorDBs {
		if block.DBType == "" {
			return configErrf("vectordb block %d: missing db_type", i)
		}

		switch block.DBType {
		case vector.DBTypeChromem, vector.DBTypeQdrant, vector.DBTypePinecone:
		default:
			return configErrf("vectordb block %d: %w: %s", i, vector.ErrUnknownDBType, block.DBType)
		}
	}

	for i, spec := range cfg.Indexers {
		if spec.ModuleType != ModuleVectorDB {
			return configErrf("indexer %d: %w: %s", i, ErrUnsupportedModuleType, spec.ModuleType)
		}
	}

	return nil
}

// Backend returns the named backend block, or the first block when
// name is empty.
func (cfg *Config) Backend(name string) (vector.Config, bool) {
	if name == "" {
		if len(cfg.VectorDBs) == 0 {
			return vector.Config{}, false
		}

		return cfg.VectorDBs[0], true
	}

	for _, block := range cfg.VectorDBs {
		if block.Name == name {
			return block, true
		}
	}

	return vector.Config{}, false
}

// BuildRunConfigs expands every indexer spec into its parameter
// cross-product and resolves each combination against a backend block.
func BuildRunConfigs(cfg Config) ([]IndexRunConfig, error) {
	var configs []IndexRunConfig

	for i, spec := range cfg.Indexers {
		for _, params := range ExpandParams(spec.Params) {
			rc := IndexRunConfig{
				ModuleType:     spec.ModuleType,
				IndexType:      IndexTypeVector,
				EmbeddingModel: embedding.ModelOpenAIEmbed3Large,
				Params:         params,
			}

			if v, ok := params["index_type"].(string); ok {
				rc.IndexType = v
			}

			if v, ok := params["embedding_model"].(string); ok {
				rc.EmbeddingModel = v
			}

			if v, ok := params["collection_name"].(string); ok {
				rc.CollectionName = v
			}

			if v, ok := params["dimension"].(int); ok {
				rc.Dimension = v
			}

			ref, _ := params["vectordb"].(string)

			backend, ok := cfg.Backend(ref)
			if !ok {
				return nil, configErrf("indexer %d: unknown vectordb block: %s", i, ref)
			}

			rc.Backend = backend

			configs = append(configs, rc)
		}
	}

	return configs, nil
}

// ExpandParams computes the cross-product over list-valued parameters.
// Scalar values pass through unchanged; keys are walked in sorted
// order so the expansion is deterministic.
func ExpandParams(params map[string]any) []map[string]any {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	combos := []map[string]any{{}}

	for _, key := range keys {
		values, ok := params[key].([]any)
		if !ok {
			values = []any{params[key]}
		}

		next := make([]map[string]any, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, value := range values {
				expanded := make(map[string]any, len(combo)+1)
				for k, v := range combo {
					expanded[k] = v
				}

				expanded[key] = value
				next = append(next, expanded)
			}
		}

		combos = next
	}

	return combos
}
