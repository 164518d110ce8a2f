package constant

const (
	// EmbedChunkTopic is the pub/sub topic for async chunk embedding.
	EmbedChunkTopic = "EMBED_CHUNK_CONTENT"

	// QuestionAnsweredEvent is emitted after each answered question for
	// external collaborators (notifications, analytics).
	QuestionAnsweredEvent = "QUESTION_ANSWERED"
)
