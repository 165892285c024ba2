package service

import (
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/pkg/knowledge"
)

// IKnowledgeService is the read-only corpus browse surface.
type IKnowledgeService interface {
	ListCategories() []string
	ListTopics(category string) *dto.CategoryTopicsResponse
	ListByCategory(category string) []dto.KnowledgeEntrySummary
	GetEntry(id string) *knowledge.Entry
}

type knowledgeService struct {
	store *knowledge.Store
}

func NewKnowledgeService(store *knowledge.Store) IKnowledgeService {
	return &knowledgeService{store: store}
}

func (ks *knowledgeService) ListCategories() []string {
	return ks.store.Categories()
}

func (ks *knowledgeService) ListTopics(category string) *dto.CategoryTopicsResponse {
	return &dto.CategoryTopicsResponse{
		Category: category,
		Topics:   ks.store.TopicsForCategory(category),
	}
}

func (ks *knowledgeService) ListByCategory(category string) []dto.KnowledgeEntrySummary {
	entries := ks.store.ListByCategory(category)
	out := make([]dto.KnowledgeEntrySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.KnowledgeEntrySummary{
			Id:         e.ID,
			Category:   e.Category,
			Topic:      e.Topic,
			Theorem:    e.Theorem,
			Difficulty: e.Difficulty,
		})
	}
	return out
}

func (ks *knowledgeService) GetEntry(id string) *knowledge.Entry {
	return ks.store.Get(id)
}
