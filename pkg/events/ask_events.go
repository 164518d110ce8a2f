package events

import (
	"time"

	"ai-tutoring-be/internal/constant"
)

// NewQuestionAnswered is emitted after each answered question so
// external collaborators (notifications, analytics) can react without
// coupling to the pipeline.
func NewQuestionAnswered(question string, grounded bool, chunkIds []string) Event {
	return BaseEvent{
		Type: constant.QuestionAnsweredEvent,
		Data: map[string]interface{}{
			"question":  question,
			"grounded":  grounded,
			"chunk_ids": chunkIds,
		},
		OccurredAt: time.Now(),
	}
}
