package dto

import (
	"time"

	"ai-tutoring-be/internal/entity"
)

// SendChatRequest is one inbound tutoring turn.
type SendChatRequest struct {
	SessionId string   `json:"session_id" validate:"required"`
	Message   string   `json:"message"`
	Images    []string `json:"images,omitempty"`
	Category  string   `json:"category,omitempty"`
	// Optional caller-supplied history, authoritative for this call only.
	History []HistoryMessage `json:"history,omitempty"`
}

// HistoryMessage is a caller-tracked history entry.
type HistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// RelatedEntryDTO surfaces one retrieval hit to the client.
type RelatedEntryDTO struct {
	Id      string  `json:"id"`
	Theorem string  `json:"theorem"`
	Topic   string  `json:"topic"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// SendChatResponseChat is one message half of a completed turn.
type SendChatResponseChat struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SendChatResponse is the blocking answer shape.
type SendChatResponse struct {
	SessionId      string                `json:"session_id"`
	Sent           *SendChatResponseChat `json:"sent"`
	Reply          *SendChatResponseChat `json:"reply"`
	RelatedEntries []RelatedEntryDTO     `json:"related_entries,omitempty"`
	Guidance       []string              `json:"guidance,omitempty"`
}

// GetHistoryResponse is one stored history message.
type GetHistoryResponse struct {
	Id        string               `json:"id"`
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	Parts     []entity.ContentPart `json:"parts,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// GuidanceRequest asks for guiding questions without generating an answer.
type GuidanceRequest struct {
	Message  string `json:"message" validate:"required"`
	Category string `json:"category,omitempty"`
}

// TurnCompletedEvent is published on the in-process bus after every
// successfully completed turn.
type TurnCompletedEvent struct {
	SessionId     string    `json:"session_id"`
	Question      string    `json:"question"`
	AnswerLength  int       `json:"answer_length"`
	RetrievedIds  []string  `json:"retrieved_ids"`
	GuidanceCount int       `json:"guidance_count"`
	Degraded      bool      `json:"degraded"`
	Streamed      bool      `json:"streamed"`
	CompletedAt   time.Time `json:"completed_at"`
}
