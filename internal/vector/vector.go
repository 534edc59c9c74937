// Package vector defines the narrow interface the pipeline uses to talk to
// a vector store backend.
package vector

import (
	"context"
	"errors"
)

var ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")

// Record is one stored chunk with its embedding and metadata.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// SearchResult is a record returned by a similarity search.
type SearchResult struct {
	Record
	Similarity float32
}

// Store is implemented by the chromem and Postgres backends. Upsert is
// idempotent by record ID: re-upserting the same ID overwrites the prior
// record.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
