package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedAnswer is the stored shape of a previously generated answer,
// including its provenance so a cache hit still shows grounding.
type CachedAnswer struct {
	Answer          string       `json:"answer"`
	GroundedChunks  []CachedRef  `json:"grounded_chunks"`
	ExpandedQueries []string     `json:"expanded_queries"`
}

type CachedRef struct {
	Id    string  `json:"id"`
	Score float64 `json:"score"`
}

// AnswerCache is a Redis-backed cache for fully answered questions.
// It is an optimization only: every failure path behaves like a miss.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnswerCache connects to Redis from a URL. An empty URL disables
// the cache (nil receiver methods degrade to misses).
func NewAnswerCache(redisURL string, ttl time.Duration) (*AnswerCache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AnswerCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

// NewAnswerCacheWithClient wires an existing client, used by tests.
func NewAnswerCacheWithClient(client *redis.Client, ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AnswerCache{client: client, ttl: ttl}
}

func (c *AnswerCache) Get(ctx context.Context, question string, gradeHint *int, languageHint, subject string) (*CachedAnswer, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, answerKey(question, gradeHint, languageHint, subject)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Unreachable Redis is a miss, not a failure.
			return nil, false
		}
		return nil, false
	}

	var cached CachedAnswer
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func (c *AnswerCache) Set(ctx context.Context, question string, gradeHint *int, languageHint, subject string, answer *CachedAnswer) {
	if c == nil || answer == nil {
		return
	}

	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	c.client.Set(ctx, answerKey(question, gradeHint, languageHint, subject), raw, c.ttl)
}

// The key covers every field that scopes an answer: the same question
// asked with a different grade, language, or subject filter is a
// different cache entry.
func answerKey(question string, gradeHint *int, languageHint, subject string) string {
	grade := 0
	if gradeHint != nil {
		grade = *gradeHint
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s", grade, languageHint, subject, question)))
	return "answer:" + hex.EncodeToString(sum[:])
}
