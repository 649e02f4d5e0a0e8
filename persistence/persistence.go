package persistence

import (
	"fmt"

	"github.com/flarexio/ragindex/persistence/chromem"
	"github.com/flarexio/ragindex/persistence/pinecone"
	"github.com/flarexio/ragindex/persistence/qdrant"
	"github.com/flarexio/ragindex/vector"
)

// NewVectorDB constructs the backend named by cfg.DBType. The switch is
// exhaustive over vector.DBType; an unlisted type fails here, before
// any collection is touched.
func NewVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	switch cfg.DBType {
	case vector.DBTypeChromem:
		return chromem.NewChromemVectorDB(cfg)

	case vector.DBTypeQdrant:
		return qdrant.NewQdrantVectorDB(cfg)

	case vector.DBTypePinecone:
		return pinecone.NewPineconeVectorDB(cfg)

	default:
		return nil, fmt.Errorf("%w: %s", vector.ErrUnknownDBType, cfg.DBType)
	}
}
