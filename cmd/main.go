package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"markdown-rag/internal/chromemdb"
	"markdown-rag/internal/config"
	"markdown-rag/internal/db"
	"markdown-rag/internal/embedding"
	"markdown-rag/internal/helper"
	"markdown-rag/internal/ingest"
	"markdown-rag/internal/rag"
	"markdown-rag/internal/vector"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if ok, _ := strconv.ParseBool(os.Getenv("DEBUG")); ok {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	cmd := &cli.Command{
		Name:  "markdown-rag",
		Usage: "Index Markdown notes into a vector store and search them",
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Process files matching MD_FILES_PATH and store them",
				Action: runProcess,
			},
			{
				Name:      "query",
				Usage:     "Search the collection with a query string",
				ArgsUsage: "<query>",
				Action:    runQuery,
			},
			{
				Name:      "ask",
				Usage:     "Answer a question using retrieved chunks as context",
				ArgsUsage: "<question>",
				Action:    runAsk,
			},
		},
		Action: runProcess,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func setup(ctx context.Context) (*config.Config, vector.Store, embedding.Embedder, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log.Debug().Msg("Loaded config")
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		helper.PrettyPrint(cfg)
	}

	if err := helper.CreateFolder(cfg.PersistDirectory); err != nil {
		return nil, nil, nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	embedder := embedding.NewOllamaEmbedder(cfg.OllamaAPI, cfg.ModelName)
	return cfg, store, embedder, nil
}

func openStore(ctx context.Context, cfg *config.Config) (vector.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		sqldb, err := db.Connect(&cfg.Store)
		if err != nil {
			return nil, err
		}
		store := db.New(sqldb, cfg.Store.Debug)
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return chromemdb.New(cfg.PersistDirectory, cfg.CollectionName)
	}
}

func runProcess(ctx context.Context, _ *cli.Command) error {
	cfg, store, embedder, err := setup(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := ingest.New(cfg, embedder, store).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Completed processing. Total documents: %d, Total chunks: %d\n",
		result.FilesProcessed, result.ChunksStored)
	if result.FilesFailed > 0 {
		log.Warn().Int("count", result.FilesFailed).Msg("Some files were skipped")
	}

	// Per-file failures do not fail the run; only the optional query below
	// logs its own errors.
	if err := rag.NewRAG(store, embedder, cfg).Interactive(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Query failed")
	}
	return nil
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: markdown-rag query <query>")
	}

	cfg, store, embedder, err := setup(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("Querying collection with: %q\n", query)

	results, err := rag.NewRAG(store, embedder, cfg).Search(ctx, query)
	if err != nil {
		return err
	}
	rag.PrintResults(os.Stdout, results)
	return nil
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	question := cmd.Args().First()
	if question == "" {
		return fmt.Errorf("usage: markdown-rag ask <question>")
	}

	cfg, store, embedder, err := setup(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	response, err := rag.NewRAG(store, embedder, cfg).Ask(ctx, question)
	if err != nil {
		return err
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)

	return nil
}
