// Package llmservice wraps the chat model used for answer generation.
package llmservice

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"markdown-rag/internal/config"
)

// GenerateContent sends the messages to the configured Ollama chat model.
func GenerateContent(ctx context.Context, cfg *config.Config, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	log.Debug().Str("model", cfg.ChatModel).Msg("Generating content")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaHost),
		ollama.WithModel(cfg.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return llm.GenerateContent(ctx, messages)
}
