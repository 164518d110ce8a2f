package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/repository/memory"
	"ai-tutoring-be/pkg/rag/pipeline"
	"ai-tutoring-be/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type stubExpander struct{}

func (stubExpander) Expand(ctx context.Context, question string, gradeHint *int) []string {
	return []string{question}
}

type stubRetriever struct {
	result store.RetrievalResult
}

func (s stubRetriever) Retrieve(ctx context.Context, queries []string, base store.Query, filter store.Filter) store.RetrievalResult {
	return s.result
}

type stubGenerator struct {
	answer string
	ok     bool
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, question, contextBlock string, gradeHint *int, languageHint string) (string, bool) {
	s.calls++
	return s.answer, s.ok
}

func groundedResult() store.RetrievalResult {
	return store.RetrievalResult{
		Chunks: []store.ScoredChunk{
			{Chunk: store.Chunk{ID: "phy-9-001", Text: "Inertia resists motion change."}, Score: 0.91},
		},
		Method: store.ScoreCosine,
	}
}

func newAskService(gen *stubGenerator, grounding store.RetrievalResult, cache *memory.AnswerCache) IAskService {
	p := pipeline.NewPipeline(
		stubExpander{},
		stubRetriever{result: grounding},
		gen,
		pipeline.DefaultConfig(),
		log.New(io.Discard, "", 0),
	)
	return NewAskService(p, cache, nil, noopLogger{})
}

func TestAskReturnsGroundedAnswer(t *testing.T) {
	gen := &stubGenerator{answer: "Inertia is the tendency of matter to resist changes in motion.", ok: true}
	svc := newAskService(gen, groundedResult(), nil)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "What is inertia?"})

	assert.NoError(t, err)
	assert.Equal(t, gen.answer, res.Answer)
	assert.False(t, res.Cached)
	assert.Len(t, res.GroundedChunks, 1)
	assert.Equal(t, "phy-9-001", res.GroundedChunks[0].Id)
}

func TestAskInvalidGradeIsCallerError(t *testing.T) {
	gen := &stubGenerator{answer: "x", ok: true}
	svc := newAskService(gen, groundedResult(), nil)

	grade := 42
	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "What is inertia?", GradeHint: &grade})

	assert.Nil(t, res)
	assert.True(t, errors.Is(err, store.ErrInvalidFilter))
	assert.Zero(t, gen.calls, "pipeline must not run for an invalid filter")
}

func TestAskUngroundedRefusalNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()
	cache := memory.NewAnswerCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	gen := &stubGenerator{answer: "never used", ok: true}
	svc := newAskService(gen, store.RetrievalResult{Method: store.ScoreCosine}, cache)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "Quantum chromodynamics?"})

	assert.NoError(t, err)
	assert.Equal(t, pipeline.UngroundedMessage, res.Answer)
	assert.Zero(t, gen.calls)
	assert.Empty(t, mr.Keys(), "refusals must not be cached")
}

func TestAskCacheScopedBySubject(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()
	cache := memory.NewAnswerCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	physGen := &stubGenerator{answer: "Force changes the motion of a body.", ok: true}
	physSvc := newAskService(physGen, groundedResult(), cache)

	bioGrounding := store.RetrievalResult{
		Chunks: []store.ScoredChunk{
			{Chunk: store.Chunk{ID: "bio-9-001", Text: "Cells are the basic unit of life."}, Score: 0.87},
		},
		Method: store.ScoreCosine,
	}
	bioGen := &stubGenerator{answer: "Living things are made of cells.", ok: true}
	bioSvc := newAskService(bioGen, bioGrounding, cache)

	ctx := context.Background()
	question := "What does this chapter cover?"

	first, err := physSvc.Ask(ctx, &dto.AskRequest{Question: question, Subject: "physics"})
	assert.NoError(t, err)
	assert.Equal(t, physGen.answer, first.Answer)

	second, err := bioSvc.Ask(ctx, &dto.AskRequest{Question: question, Subject: "biology"})
	assert.NoError(t, err)
	assert.False(t, second.Cached, "a different subject filter must not reuse the physics entry")
	assert.Equal(t, bioGen.answer, second.Answer)
	assert.Equal(t, "bio-9-001", second.GroundedChunks[0].Id)
	assert.Equal(t, 1, bioGen.calls, "the biology pipeline must run for its own subject")
}

func TestAskSecondCallHitsCache(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()
	cache := memory.NewAnswerCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	gen := &stubGenerator{answer: "a generated answer", ok: true}
	svc := newAskService(gen, groundedResult(), cache)

	ctx := context.Background()
	first, err := svc.Ask(ctx, &dto.AskRequest{Question: "What is inertia?"})
	assert.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Ask(ctx, &dto.AskRequest{Question: "What is inertia?"})
	assert.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.GroundedChunks, second.GroundedChunks)
	assert.Equal(t, 1, gen.calls, "cache hit must skip generation")
}
