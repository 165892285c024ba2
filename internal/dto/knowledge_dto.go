package dto

import "ai-tutoring-be/pkg/knowledge"

// SearchKnowledgeRequest is the read-only retrieval surface for the UI.
type SearchKnowledgeRequest struct {
	Query    string `json:"query" validate:"required"`
	TopK     int    `json:"top_k" validate:"omitempty,min=1,max=20"`
	Category string `json:"category,omitempty"`
}

// KnowledgeEntrySummary lists an entry without its pedagogical payload.
type KnowledgeEntrySummary struct {
	Id         string               `json:"id"`
	Category   string               `json:"category"`
	Topic      string               `json:"topic"`
	Theorem    string               `json:"theorem"`
	Difficulty knowledge.Difficulty `json:"difficulty"`
}

// CategoryTopicsResponse lists the topics of one category.
type CategoryTopicsResponse struct {
	Category string   `json:"category"`
	Topics   []string `json:"topics"`
}
