package models

const (
	// ContentPreviewLen bounds the chunk text shown for each search result.
	ContentPreviewLen = 150
)

var (
	RAGSystemPrompt = "You are a helpful assistant. Use the provided context to answer the query."

	RAGPromptTemplate = `Context:
%s
Query: %s`
)
