package embedding

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: []float32{1, 2, 3}},
	}, nil
}

func TestCachedProviderHit(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, time.Minute)

	ctx := context.Background()
	first, err := p.Generate(ctx, "what is inertia", TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := p.Generate(ctx, "what is inertia", TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if first != second {
		t.Error("cache hit returned a different response object")
	}
}

func TestCachedProviderTaskTypeSeparatesEntries(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, time.Minute)

	ctx := context.Background()
	p.Generate(ctx, "same text", TaskRetrievalQuery)
	p.Generate(ctx, "same text", TaskRetrievalDocument)

	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 (different task types)", inner.calls)
	}
}

func TestCachedProviderErrorNotCached(t *testing.T) {
	inner := &countingProvider{err: ErrUnavailable}
	p := NewCachedProvider(inner, time.Minute)

	ctx := context.Background()
	if _, err := p.Generate(ctx, "text", TaskRetrievalQuery); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}

	inner.err = nil
	if _, err := p.Generate(ctx, "text", TaskRetrievalQuery); err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want failure retried", inner.calls)
	}
}
