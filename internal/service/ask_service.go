package service

import (
	"context"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/memory"
	"ai-tutoring-be/pkg/events"
	pktNats "ai-tutoring-be/pkg/nats"
	"ai-tutoring-be/pkg/rag/pipeline"
	"ai-tutoring-be/pkg/store"
)

// IAskService is the inbound boundary for student questions.
type IAskService interface {
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
}

type askService struct {
	ragPipeline    *pipeline.Pipeline
	answerCache    *memory.AnswerCache
	eventPublisher *pktNats.Publisher
	sysLogger      logger.ILogger
}

func NewAskService(
	ragPipeline *pipeline.Pipeline,
	answerCache *memory.AnswerCache,
	eventPublisher *pktNats.Publisher,
	sysLogger logger.ILogger,
) IAskService {
	return &askService{
		ragPipeline:    ragPipeline,
		answerCache:    answerCache,
		eventPublisher: eventPublisher,
		sysLogger:      sysLogger,
	}
}

// Ask validates the filter, consults the answer cache, and runs the RAG
// pipeline. The response always carries a natural-language answer; the
// only caller-visible error is an invalid filter.
func (as *askService) Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error) {
	filter, err := store.NewFilter(request.GradeHint, request.Subject)
	if err != nil {
		return nil, err
	}

	if cached, hit := as.answerCache.Get(ctx, request.Question, request.GradeHint, request.LanguageHint, request.Subject); hit {
		as.sysLogger.Info("ask", "answer cache hit", map[string]interface{}{
			"question": request.Question,
		})
		return cachedToResponse(cached), nil
	}

	query := store.Query{
		Text:         request.Question,
		GradeHint:    request.GradeHint,
		LanguageHint: request.LanguageHint,
	}

	result := as.ragPipeline.Ask(ctx, query, filter)

	response := &dto.AskResponse{
		Answer:          result.Answer,
		GroundedChunks:  groundingToResponse(result.Grounding),
		ExpandedQueries: result.ExpandedQueries,
	}

	as.sysLogger.Info("ask", "question answered", map[string]interface{}{
		"question":  request.Question,
		"state":     string(result.FinalState),
		"grounded":  !result.Grounding.Empty(),
		"generated": result.Generated,
	})

	// Only model-produced answers are worth caching; refusals are cheap
	// to recompute and may resolve once content or backends recover.
	if result.Generated {
		as.answerCache.Set(ctx, request.Question, request.GradeHint, request.LanguageHint, request.Subject, &memory.CachedAnswer{
			Answer:          response.Answer,
			GroundedChunks:  toCachedRefs(response.GroundedChunks),
			ExpandedQueries: response.ExpandedQueries,
		})
	}

	// Event publishing is auxiliary; never fail the request over it.
	evt := events.NewQuestionAnswered(request.Question, !result.Grounding.Empty(), result.Grounding.IDs())
	if err := as.eventPublisher.Publish(ctx, evt); err != nil {
		as.sysLogger.Warn("ask", "failed to publish answered event", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return response, nil
}

func groundingToResponse(grounding store.RetrievalResult) []dto.GroundedChunkResponse {
	refs := make([]dto.GroundedChunkResponse, len(grounding.Chunks))
	for i, sc := range grounding.Chunks {
		refs[i] = dto.GroundedChunkResponse{
			Id:    sc.Chunk.ID,
			Score: sc.Score,
		}
	}
	return refs
}

func toCachedRefs(refs []dto.GroundedChunkResponse) []memory.CachedRef {
	cached := make([]memory.CachedRef, len(refs))
	for i, ref := range refs {
		cached[i] = memory.CachedRef{Id: ref.Id, Score: ref.Score}
	}
	return cached
}

func cachedToResponse(cached *memory.CachedAnswer) *dto.AskResponse {
	refs := make([]dto.GroundedChunkResponse, len(cached.GroundedChunks))
	for i, ref := range cached.GroundedChunks {
		refs[i] = dto.GroundedChunkResponse{Id: ref.Id, Score: ref.Score}
	}
	return &dto.AskResponse{
		Answer:          cached.Answer,
		GroundedChunks:  refs,
		ExpandedQueries: cached.ExpandedQueries,
		Cached:          true,
	}
}
