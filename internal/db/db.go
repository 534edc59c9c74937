// Package db persists chunk records in Postgres with the pgvector
// extension, as an alternative to the embedded chromem backend.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"markdown-rag/internal/config"
	"markdown-rag/internal/vector"
)

// vectorSize must match the embedding model; nomic-embed-text produces
// 768-dimensional vectors.
const vectorSize = 768

type document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          string  `bun:"id,pk"`
	Content     string  `bun:"content,notnull"`
	Embedding   string  `bun:"embedding,notnull,type:vector(768)"`
	Source      string  `bun:"source"`
	FullPath    string  `bun:"full_path"`
	ChunkIndex  int     `bun:"chunk_index"`
	TotalChunks int     `bun:"total_chunks"`
	Similarity  float32 `bun:"similarity,scanonly"`
}

// Store implements vector.Store on top of bun and Postgres.
type Store struct {
	db *bun.DB
}

var _ vector.Store = (*Store)(nil)

// Connect opens the Postgres connection. The database key, when set, is
// used as the connection password.
func Connect(cfg *config.StoreConfig) (*sql.DB, error) {
	dsn := cfg.DatabaseURL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.DatabaseKey))), nil
}

func New(sqldb *sql.DB, debug bool) *Store {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

// Init creates the vector extension and the documents table if absent.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	_, err := s.db.NewCreateTable().Model((*document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Store) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]document, len(records))
	for i, rec := range records {
		if len(rec.Embedding) != vectorSize {
			return fmt.Errorf("%w: got %d, column is vector(%d)",
				vector.ErrDimensionMismatch, len(rec.Embedding), vectorSize)
		}
		chunkIdx, _ := strconv.Atoi(rec.Metadata["chunk"])
		totalChunks, _ := strconv.Atoi(rec.Metadata["total_chunks"])
		docs[i] = document{
			ID:          rec.ID,
			Content:     rec.Content,
			Embedding:   vectorLiteral(rec.Embedding),
			Source:      rec.Metadata["source"],
			FullPath:    rec.Metadata["full_path"],
			ChunkIndex:  chunkIdx,
			TotalChunks: totalChunks,
		}
	}

	_, err := s.db.NewInsert().
		Model(&docs).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Set("source = EXCLUDED.source").
		Set("full_path = EXCLUDED.full_path").
		Set("chunk_index = EXCLUDED.chunk_index").
		Set("total_chunks = EXCLUDED.total_chunks").
		Exec(ctx)
	return err
}

func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]vector.SearchResult, error) {
	lit := vectorLiteral(embedding)

	var docs []document
	err := s.db.NewSelect().
		Model(&docs).
		Column("id", "content", "source", "full_path", "chunk_index", "total_chunks").
		ColumnExpr("1 - (embedding <=> ?::vector) AS similarity", lit).
		OrderExpr("embedding <-> ?::vector", lit).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]vector.SearchResult, len(docs))
	for i, doc := range docs {
		out[i] = vector.SearchResult{
			Record: vector.Record{
				ID:      doc.ID,
				Content: doc.Content,
				Metadata: map[string]string{
					"source":       doc.Source,
					"full_path":    doc.FullPath,
					"chunk":        strconv.Itoa(doc.ChunkIndex),
					"total_chunks": strconv.Itoa(doc.TotalChunks),
				},
			},
			Similarity: doc.Similarity,
		}
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*document)(nil)).Count(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// vectorLiteral renders an embedding in the pgvector input format, e.g.
// "[0.1,0.2]".
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
