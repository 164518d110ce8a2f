package main

import (
	"context"
	"log"

	"ai-tutoring-be/internal/config"
	"ai-tutoring-be/internal/corpus"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/implementation"
	"ai-tutoring-be/pkg/database"
	"ai-tutoring-be/pkg/embedding"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Seeds the built-in demo corpus into Postgres and embeds every chunk
// synchronously, so a fresh database can answer questions immediately
// without waiting for the ingestion consumer.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	provider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Keys.GoogleGemini,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaEmbeddingModel,
	)
	if err != nil {
		log.Fatalf("Error: Failed to initialize embedding provider: %v", err)
	}

	chunkRepo := implementation.NewChunkRepository(db)
	ctx := context.Background()

	color.Cyan("🌱 Seeding demo corpus (%s embeddings)\n", cfg.Ai.EmbeddingProvider)

	seeded, skipped := 0, 0
	for _, c := range corpus.Demo() {
		color.Yellow("[SEED] %s", c.ID)

		chunk := &entity.Chunk{
			Id:       uuid.New(),
			Text:     c.Text,
			Metadata: c.Metadata,
		}
		if err := chunkRepo.Create(ctx, chunk); err != nil {
			color.Red("Failed to insert %s: %v", c.ID, err)
			skipped++
			continue
		}

		res, err := provider.Generate(ctx, c.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			color.Red("Failed to embed %s (consumer can retry later): %v", c.ID, err)
			skipped++
			continue
		}
		if err := chunkRepo.SetEmbedding(ctx, chunk.Id, res.Embedding.Values); err != nil {
			color.Red("Failed to store embedding for %s: %v", c.ID, err)
			skipped++
			continue
		}

		color.Green("Seeded %s as %s", c.ID, chunk.Id)
		seeded++
	}

	color.Cyan("\n✅ Done: %d seeded, %d skipped", seeded, skipped)
}
