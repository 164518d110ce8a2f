package dto

type CreateChunkRequest struct {
	Text     string                 `json:"text" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ChunkResponse struct {
	Id       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Embedded bool                   `json:"embedded"`
}

type ListChunksRequest struct {
	Grade   *int   `query:"grade" validate:"omitempty,min=1,max=12"`
	Subject string `query:"subject" validate:"omitempty,max=64"`
}

// PublishEmbedChunkMessage is the payload of the async embedding event.
type PublishEmbedChunkMessage struct {
	ChunkId string `json:"chunk_id"`
}
