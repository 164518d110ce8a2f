package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/pkg/store"
	"ai-tutoring-be/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// Long passages are split so each retrievable chunk stays close to a
	// single idea; overlap preserves context at the cut.
	ingestChunkSize    = 1200
	ingestChunkOverlap = 150
)

// IContentService is the content-management boundary. The retrieval path
// only ever reads; all mutation goes through here.
type IContentService interface {
	Create(ctx context.Context, request *dto.CreateChunkRequest) ([]*dto.ChunkResponse, error)
	List(ctx context.Context, request *dto.ListChunksRequest) ([]*dto.ChunkResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ChunkResponse, error)
}

type contentService struct {
	chunkRepo        contract.ChunkRepository
	publisherService IPublisherService
}

func NewContentService(chunkRepo contract.ChunkRepository, publisherService IPublisherService) IContentService {
	return &contentService{
		chunkRepo:        chunkRepo,
		publisherService: publisherService,
	}
}

// Create splits the passage, stores the chunks, and queues each for
// async embedding. Chunks are returned un-embedded; the consumer fills
// the vectors in.
func (cs *contentService) Create(ctx context.Context, request *dto.CreateChunkRequest) ([]*dto.ChunkResponse, error) {
	parts := utils.SplitText(request.Text, ingestChunkSize, ingestChunkOverlap)

	chunks := make([]*entity.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = &entity.Chunk{
			Id:        uuid.New(),
			Text:      part,
			Metadata:  request.Metadata,
			CreatedAt: time.Now(),
		}
	}

	if err := cs.chunkRepo.CreateBulk(ctx, chunks); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	for _, chunk := range chunks {
		msgPayload := dto.PublishEmbedChunkMessage{
			ChunkId: chunk.Id.String(),
		}
		msgJson, err := json.Marshal(msgPayload)
		if err != nil {
			return nil, err
		}
		if err := cs.publisherService.Publish(ctx, msgJson); err != nil {
			return nil, fmt.Errorf("queue chunk for embedding: %w", err)
		}
	}

	return toChunkResponses(chunks), nil
}

func (cs *contentService) List(ctx context.Context, request *dto.ListChunksRequest) ([]*dto.ChunkResponse, error) {
	// Validated grade bounds become a real filter here, same boundary as
	// the ask path.
	if _, err := store.NewFilter(request.Grade, request.Subject); err != nil {
		return nil, err
	}

	var specs []specification.Specification
	if request.Grade != nil {
		specs = append(specs, specification.ByGrade{Grade: *request.Grade})
	}
	if request.Subject != "" {
		specs = append(specs, specification.BySubject{Subject: request.Subject})
	}

	chunks, err := cs.chunkRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return toChunkResponses(chunks), nil
}

func (cs *contentService) Get(ctx context.Context, id uuid.UUID) (*dto.ChunkResponse, error) {
	chunk, err := cs.chunkRepo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "chunk not found")
	}
	return toChunkResponse(chunk), nil
}

func toChunkResponse(chunk *entity.Chunk) *dto.ChunkResponse {
	return &dto.ChunkResponse{
		Id:       chunk.Id.String(),
		Text:     chunk.Text,
		Metadata: chunk.Metadata,
		Embedded: chunk.HasEmbedding(),
	}
}

func toChunkResponses(chunks []*entity.Chunk) []*dto.ChunkResponse {
	responses := make([]*dto.ChunkResponse, len(chunks))
	for i, chunk := range chunks {
		responses[i] = toChunkResponse(chunk)
	}
	return responses
}
