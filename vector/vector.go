package vector

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownDBType = errors.New("unknown vector database type")

// DBType enumerates the supported vector database backends. The set is
// closed: persistence.NewVectorDB switches exhaustively over it and
// rejects anything else at construction time.
type DBType string

const (
	DBTypeChromem  DBType = "chromem"
	DBTypeQdrant   DBType = "qdrant"
	DBTypePinecone DBType = "pinecone"
)

type DistanceMetric string

const (
	DistanceCosine DistanceMetric = "cosine"
	DistanceDot    DistanceMetric = "ip"
	DistanceL2     DistanceMetric = "l2"
)

// Config is one backend block of the declarative run configuration.
// DBType discriminates the concrete backend. Name is metadata only and
// never reaches a backend constructor.
type Config struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	DBType DBType `yaml:"db_type" json:"db_type"`

	// chromem
	Persistent bool   `yaml:"persistent,omitempty" json:"persistent,omitempty"`
	Path       string `yaml:"path,omitempty" json:"path,omitempty"`

	// qdrant
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// pinecone
	Cloud  string `yaml:"cloud,omitempty" json:"cloud,omitempty"`
	Region string `yaml:"region,omitempty" json:"region,omitempty"`

	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	Metric      DistanceMetric `yaml:"similarity_metric,omitempty" json:"similarity_metric,omitempty"`
	IngestBatch int            `yaml:"ingest_batch,omitempty" json:"ingest_batch,omitempty"`

	// Defaults used when a run config does not override them.
	EmbeddingModel string `yaml:"embedding_model,omitempty" json:"embedding_model,omitempty"`
	CollectionName string `yaml:"collection_name,omitempty" json:"collection_name,omitempty"`
	Dimension      int    `yaml:"dimension,omitempty" json:"dimension,omitempty"`
}

// VectorDB is the uniform capability set every backend implements. The
// variants differ in transport and authentication only, never in the
// semantics of these operations. Upsert is idempotent on document ID
// across all variants: re-upserting an ID overwrites, never duplicates.
type VectorDB interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	DescribeCollection(ctx context.Context, name string) (CollectionDescriptor, error)
	CreateCollection(ctx context.Context, name string, dimension int, metric DistanceMetric) error
	Upsert(ctx context.Context, collection string, docs []Document) error
	Query(ctx context.Context, collection string, embedding []float32, topK int) ([]SearchResult, error)
	Close() error
}

// CollectionDescriptor is the durable backend-side state of a
// collection. Dimension is immutable once the collection exists.
type CollectionDescriptor struct {
	Name           string `json:"name"`
	Dimension      int    `json:"vector_dimension"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	BackendType    DBType `json:"backend_type"`
	DocumentCount  int    `json:"document_count"`
}

type Document struct {
	ID        string            `json:"id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding,omitempty"`
}

type SearchResult struct {
	ID       string            `json:"id"`
	Score    float32           `json:"score"`
	Content  string            `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// BackendError wraps a transport, auth or capacity failure of a
// concrete backend. Upsert idempotence makes a failed call safe to
// retry, but retrying is the caller's decision.
type BackendError struct {
	Backend DBType
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Backend, e.Op, e.Err.Error())
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
