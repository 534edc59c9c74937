// Package ingest drives the indexing pipeline: discover source files, parse
// and chunk them, embed every chunk and upsert the results into the vector
// store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"markdown-rag/internal/chunker"
	"markdown-rag/internal/config"
	"markdown-rag/internal/embedding"
	"markdown-rag/internal/helper"
	"markdown-rag/internal/parser"
	"markdown-rag/internal/vector"
)

var ErrNoFilesFound = errors.New("no files matched the glob pattern")

// Result accumulates run-level counters.
type Result struct {
	FilesFound     int
	FilesProcessed int
	FilesFailed    int
	ChunksStored   int
}

// Ingestor processes files strictly sequentially: one file, one chunk, one
// embedding call, one storage batch at a time.
type Ingestor struct {
	cfg      *config.Config
	embedder embedding.Embedder
	store    vector.Store
}

func New(cfg *config.Config, embedder embedding.Embedder, store vector.Store) *Ingestor {
	return &Ingestor{cfg: cfg, embedder: embedder, store: store}
}

// Run discovers files matching the configured glob and indexes them in
// discovery order. A file that cannot be read, embedded or stored is
// abandoned (its remaining chunks are skipped) and the run continues with
// the next file; only a zero-match glob aborts the run.
func (ing *Ingestor) Run(ctx context.Context) (*Result, error) {
	runID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	logger := log.With().Str("run_id", runID).Logger()

	files, err := DiscoverFiles(ing.cfg.FilesPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesFound, ing.cfg.FilesPath)
	}

	result := &Result{FilesFound: len(files)}
	logger.Info().Int("count", len(files)).Msg("Found files to process")

	for i, filePath := range files {
		logger.Info().Str("file", filepath.Base(filePath)).Msgf("Processing file %d/%d", i+1, len(files))

		stored, err := ing.processFile(ctx, filePath)
		if err != nil {
			logger.Error().Err(err).Str("file", filePath).Msg("Skipping file")
			result.FilesFailed++
			continue
		}
		if stored == 0 {
			logger.Info().Str("file", filePath).Msg("Skipping empty file")
			continue
		}

		result.FilesProcessed++
		result.ChunksStored += stored
		logger.Info().Int("chunks", stored).Str("file", filepath.Base(filePath)).Msg("Added chunks")
	}

	return result, nil
}

func (ing *Ingestor) processFile(ctx context.Context, filePath string) (int, error) {
	content, err := parser.ParseFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	chunks := chunker.Split(content, ing.cfg.MaxChunkSize)
	if len(chunks) == 0 {
		return 0, nil
	}

	fileName := filepath.Base(filePath)
	records := make([]vector.Record, len(chunks))
	for i, chunk := range chunks {
		emb, err := ing.embedder.EmbedQuery(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		records[i] = vector.Record{
			ID:        fmt.Sprintf("%s-%d", filePath, i),
			Content:   chunk,
			Embedding: emb,
			Metadata: map[string]string{
				"source":       fileName,
				"full_path":    filePath,
				"chunk":        strconv.Itoa(i),
				"total_chunks": strconv.Itoa(len(chunks)),
			},
		}
	}

	if err := ing.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	return len(records), nil
}

// DiscoverFiles expands the glob pattern. A `**` segment matches any
// directory depth, with the remainder of the pattern matched against the
// trailing path segments; results are returned in lexicographic order.
func DiscoverFiles(pattern string) ([]string, error) {
	idx := strings.Index(pattern, "**")
	if idx < 0 {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		return files, nil
	}

	root := filepath.Dir(pattern[:idx])
	rest := strings.TrimPrefix(pattern[idx+2:], string(filepath.Separator))
	if rest == "" {
		rest = "*"
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := matchSuffix(rest, rel)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// matchSuffix matches each segment of pattern against the same number of
// trailing segments of rel, so `**/sub/*.md` matches files in any directory
// named sub.
func matchSuffix(pattern, rel string) (bool, error) {
	patSegs := strings.Split(pattern, string(filepath.Separator))
	relSegs := strings.Split(rel, string(filepath.Separator))
	if len(relSegs) < len(patSegs) {
		return false, nil
	}
	relSegs = relSegs[len(relSegs)-len(patSegs):]
	for i := range patSegs {
		ok, err := filepath.Match(patSegs[i], relSegs[i])
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}
