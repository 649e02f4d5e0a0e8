package ragindex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flarexio/ragindex/embedding"
	"github.com/flarexio/ragindex/vector"
)

const (
	// ModuleVectorDB is the only index module implemented today.
	ModuleVectorDB = "vectordb"

	// IndexTypeVector is the only index type the vectordb module accepts.
	IndexTypeVector = "vector"
)

var (
	ErrUnsupportedModuleType = errors.New("unsupported module type")
	ErrUnsupportedIndexType  = errors.New("unsupported index type")
	ErrCollectionRequired    = errors.New("collection name is required")
)

// ConfigError marks bad, missing or contradictory configuration. It is
// never retried and maps to a client error on API surfaces.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrf(format string, args ...any) *ConfigError {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// IsConfigError reports whether err belongs to the configuration error
// class, as opposed to provider or backend failures.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return true
	}

	return errors.Is(err, embedding.ErrUnknownModel) ||
		errors.Is(err, vector.ErrUnknownDBType)
}

// ChunkRecord is one row of chunked input, produced upstream by the
// chunking stage and read-only here.
type ChunkRecord struct {
	DocID       string            `json:"doc_id"`
	Contents    string            `json:"contents"`
	Path        string            `json:"path,omitempty"`
	StartEndIdx []int             `json:"start_end_idx,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IndexRunConfig is one executable combination of module, backend and
// parameters. Each config runs independently and produces its own
// artifact.
type IndexRunConfig struct {
	ModuleType     string        `json:"module_type"`
	IndexType      string        `json:"index_type"`
	EmbeddingModel string        `json:"embedding_model"`
	CollectionName string        `json:"collection_name,omitempty"`
	Dimension      int           `json:"dimension,omitempty"`
	Backend        vector.Config `json:"backend"`

	// Params holds the raw parameter combination for summary reporting.
	Params map[string]any `json:"params,omitempty"`
}

// IndexResultRow is one output row per input chunk per config, written
// once and never mutated.
type IndexResultRow struct {
	DocID     string            `json:"doc_id"`
	IndexID   string            `json:"index_id"`
	IndexType string            `json:"index_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RunSummary is one row per executed config. ExecutionTime is the
// average per-document wall-clock cost in seconds; a failed config
// carries its error message instead of a filename.
type RunSummary struct {
	Filename      string         `json:"filename,omitempty"`
	ModuleName    string         `json:"module_name"`
	ModuleParams  map[string]any `json:"module_params,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
	Error         string         `json:"error,omitempty"`
}

// DeriveCollectionName builds a collection name from the model name
// plus a random suffix, so concurrent runs without an explicit name
// never collide.
func DeriveCollectionName(model string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return model + "_" + suffix
}
