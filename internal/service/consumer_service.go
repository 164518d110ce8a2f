package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// backfillBatchSize bounds the startup scan for chunks left without a
// vector, keeping restart cost flat as the corpus grows.
const backfillBatchSize = 100

// IConsumerService drains the embed topic: for each queued chunk it
// computes the vector and stores it in one write.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunkRepo         contract.ChunkRepository
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.ChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	// Chunks whose embed message was lost (crash between store and
	// queue, drained topic) are picked up here on every restart.
	cs.backfill(ctx)

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) backfill(ctx context.Context) {
	pending, err := cs.chunkRepo.FindAll(ctx, specification.MissingEmbedding{}, specification.WithLimit{Limit: backfillBatchSize})
	if err != nil {
		log.Printf("[WARN] Embedding backfill scan failed: %v", err)
		return
	}

	for _, chunk := range pending {
		res, err := cs.embeddingProvider.Generate(ctx, chunk.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[WARN] Backfill embed failed for chunk %s: %v", chunk.Id, err)
			continue
		}
		if err := cs.chunkRepo.SetEmbedding(ctx, chunk.Id, res.Embedding.Values); err != nil {
			log.Printf("[WARN] Backfill store failed for chunk %s: %v", chunk.Id, err)
		}
	}

	if len(pending) > 0 {
		log.Printf("[INFO] Embedding backfill processed %d chunk(s)", len(pending))
	}
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedChunkMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal embed message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	chunkId, err := uuid.Parse(payload.ChunkId)
	if err != nil {
		log.Printf("[ERROR] Invalid chunk id %q: %v", payload.ChunkId, err)
		msg.Ack()
		return
	}

	chunk, err := cs.chunkRepo.FindOne(ctx, specification.ByID{ID: chunkId})
	if err != nil {
		log.Printf("[ERROR] Failed to get chunk %s: %v", chunkId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if chunk == nil {
		log.Printf("[ERROR] Chunk not found: %s", chunkId)
		msg.Ack() // Chunk deleted? Ack.
		return
	}

	res, err := cs.embeddingProvider.Generate(ctx, chunk.Text, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Printf("[ERROR] Failed to embed chunk %s: %v", chunkId, err)
		msg.Nack()
		return
	}

	if err := cs.chunkRepo.SetEmbedding(ctx, chunkId, res.Embedding.Values); err != nil {
		log.Printf("[ERROR] Failed to store embedding for chunk %s: %v", chunkId, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Embedded chunk %s (%d dims)", chunkId, len(res.Embedding.Values))
	msg.Ack()
}
