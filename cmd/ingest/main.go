package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"org-diagnostics-be/internal/config"
	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/pkg/database"
	"org-diagnostics-be/pkg/embedding"
	"org-diagnostics-be/pkg/utils"
)

// Ingests the knowledge base: walks <docs-dir>/<dimension>/*.md, chunks each
// document, embeds the chunks, and bulk-inserts them for vector search.
func main() {
	docsDir := flag.String("docs", "docs", "root directory holding one subdirectory per dimension")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	uowFactory := unitofwork.NewRepositoryFactory(db)

	embedder, err := embedding.NewEmbeddingProvider(cfg.Ai.EmbeddingProvider, embeddingApiKey(cfg), cfg.Ai.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}

	ctx := context.Background()
	uow := uowFactory.NewUnitOfWork(ctx)

	totalChunks := 0
	for _, stage := range constant.StageOrder {
		stageDir := filepath.Join(*docsDir, stage)
		files, err := filepath.Glob(filepath.Join(stageDir, "*.md"))
		if err != nil || len(files) == 0 {
			color.Yellow("skip  %-14s no documents in %s", stage, stageDir)
			continue
		}

		color.Cyan("stage %-14s %d document(s)", stage, len(files))

		for _, file := range files {
			content, err := os.ReadFile(file)
			if err != nil {
				color.Red("fail  %s: %v", file, err)
				continue
			}

			chunks := utils.SplitText(string(content), utils.DefaultChunkSize, utils.DefaultChunkOverlap)
			entities := make([]*entity.KnowledgeChunk, 0, len(chunks))

			for i, chunk := range chunks {
				if strings.TrimSpace(chunk) == "" {
					continue
				}

				vector, err := embedWithRetry(ctx, embedder, chunk)
				if err != nil {
					color.Red("fail  %s chunk %d: %v", file, i, err)
					os.Exit(1)
				}

				entities = append(entities, &entity.KnowledgeChunk{
					Id:        uuid.New(),
					Content:   chunk,
					Category:  stage,
					Source:    filepath.ToSlash(file),
					Embedding: vector,
					CreatedAt: time.Now(),
				})
			}

			if len(entities) == 0 {
				continue
			}

			if err := uow.KnowledgeChunkRepository().CreateBulk(ctx, entities); err != nil {
				color.Red("fail  %s: %v", file, err)
				os.Exit(1)
			}

			totalChunks += len(entities)
			color.Green("ok    %s (%d chunks)", file, len(entities))
		}
	}

	color.Green("done  %d chunks ingested", totalChunks)
}

// embedWithRetry retries transient embedding failures with a short backoff.
func embedWithRetry(ctx context.Context, embedder embedding.EmbeddingProvider, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
		vector, err := embedder.Generate(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func embeddingApiKey(cfg *config.Config) string {
	if cfg.Ai.EmbeddingProvider == "zhipu" {
		return cfg.Keys.Zhipu
	}
	return cfg.Keys.OpenAI
}
