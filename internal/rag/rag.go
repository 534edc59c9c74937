// Package rag answers queries against the vector store: plain similarity
// search, an interactive one-shot prompt, and answer generation through a
// local chat model.
package rag

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"markdown-rag/internal/config"
	"markdown-rag/internal/embedding"
	"markdown-rag/internal/llmservice"
	"markdown-rag/internal/models"
	"markdown-rag/internal/vector"
)

type RAG struct {
	store    vector.Store
	embedder embedding.Embedder
	cfg      *config.Config
}

func NewRAG(store vector.Store, embedder embedding.Embedder, cfg *config.Config) *RAG {
	return &RAG{store: store, embedder: embedder, cfg: cfg}
}

// Search embeds the query and returns the nearest stored chunks by
// decreasing similarity. An empty query short-circuits with no request.
func (r *RAG) Search(ctx context.Context, query string) ([]vector.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Search(ctx, queryEmbedding, r.cfg.TopK)
}

// Interactive reads one optional query from in and prints ranked results to
// out. An empty line skips the search entirely.
func (r *RAG) Interactive(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, "\nEnter a search query (press Enter to skip): ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return scanner.Err()
	}

	query := strings.TrimSpace(scanner.Text())
	if query == "" {
		return nil
	}

	results, err := r.Search(ctx, query)
	if err != nil {
		return err
	}
	PrintResults(out, results)
	return nil
}

// Ask retrieves the nearest chunks and generates an answer with the chat
// model, using the retrieved chunks as context.
func (r *RAG) Ask(ctx context.Context, query string) (*models.PromptResponse, error) {
	results, err := r.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	var contextText strings.Builder
	sources := make([]string, 0, len(results))
	for _, res := range results {
		contextText.WriteString(res.Content)
		contextText.WriteString("\n\n")
		if src := res.Metadata["source"]; src != "" && !slices.Contains(sources, src) {
			sources = append(sources, src)
		}
	}

	prompt := fmt.Sprintf(models.RAGPromptTemplate, contextText.String(), query)
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.RAGSystemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := llmservice.GenerateContent(ctx, r.cfg, messages)
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("chat model returned no choices")
	}

	return &models.PromptResponse{
		Query:   query,
		Source:  strings.Join(sources, ", "),
		Content: res.Choices[0].Content,
	}, nil
}

// PrintResults writes ranked search results: source, path, chunk position,
// similarity and a content preview.
func PrintResults(w io.Writer, results []vector.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "\nNo matching documents found.")
		return
	}

	fmt.Fprintln(w, "\nSearch Results:")
	for i, res := range results {
		chunkIdx, _ := strconv.Atoi(res.Metadata["chunk"])
		fmt.Fprintf(w, "\nResult %d:\n", i+1)
		fmt.Fprintf(w, "Source: %s\n", res.Metadata["source"])
		fmt.Fprintf(w, "Path: %s\n", res.Metadata["full_path"])
		fmt.Fprintf(w, "Chunk: %d/%s\n", chunkIdx+1, res.Metadata["total_chunks"])
		fmt.Fprintf(w, "Similarity: %.4f\n", res.Similarity)
		fmt.Fprintf(w, "Content: %s\n", preview(res.Content))
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= models.ContentPreviewLen {
		return content
	}
	return string(runes[:models.ContentPreviewLen]) + "..."
}
