// Package chromemdb persists chunk records in a chromem-go collection.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"markdown-rag/internal/vector"
)

const compress = false

// Store implements vector.Store on top of chromem-go.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	dim        int
}

var _ vector.Store = (*Store)(nil)

// New opens (or creates) a persistent database under dbPath and the named
// collection. An in-memory database is used when dbPath is empty.
func New(dbPath, collectionName string) (*Store, error) {
	var db *chromem.DB
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
		db = d
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &Store{db: db, collection: c}, nil
}

// Upsert adds the records to the collection, overwriting any record with the
// same ID. All embeddings in a collection must share one dimensionality.
func (s *Store) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		if s.dim == 0 {
			s.dim = len(rec.Embedding)
		}
		if len(rec.Embedding) != s.dim {
			return fmt.Errorf("%w: got %d, collection has %d",
				vector.ErrDimensionMismatch, len(rec.Embedding), s.dim)
		}
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Content,
			Metadata:  rec.Metadata,
			Embedding: rec.Embedding,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Search returns the k nearest records by cosine similarity. k is clamped to
// the collection size.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]vector.SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]vector.SearchResult, len(results))
	for i, res := range results {
		out[i] = vector.SearchResult{
			Record: vector.Record{
				ID:        res.ID,
				Content:   res.Content,
				Embedding: res.Embedding,
				Metadata:  res.Metadata,
			},
			Similarity: res.Similarity,
		}
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *Store) Close() error {
	return nil
}
