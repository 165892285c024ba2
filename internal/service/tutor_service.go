package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/memory"
	"ai-tutoring-be/pkg/guidance"
	"ai-tutoring-be/pkg/knowledge"
	"ai-tutoring-be/pkg/llm"
	"ai-tutoring-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ITutorService is the engine surface a transport layer calls.
type ITutorService interface {
	Answer(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	AnswerStream(ctx context.Context, request *dto.SendChatRequest, onFragment llm.FragmentFunc) (*dto.SendChatResponse, error)
	Retrieve(ctx context.Context, query string, k int, category string) ([]retrieval.Result, error)
	SelectGuidance(ctx context.Context, msg, category string) guidance.Set
	GetHistory(sessionID string) []dto.GetHistoryResponse
	ClearSession(sessionID string)
	ListSessionIds() []string
}

// TutorOptions carries the fixed sampling and retrieval parameters of a run.
type TutorOptions struct {
	Temperature     float64
	MaxTokens       int
	TopK            int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

type tutorService struct {
	index       *retrieval.Index
	selector    *guidance.Selector
	llmProvider llm.LLMProvider
	sessionRepo *memory.SessionRepository
	publisher   message.Publisher
	sysLogger   logger.ILogger
	opts        TutorOptions
}

func NewTutorService(
	index *retrieval.Index,
	selector *guidance.Selector,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	publisher message.Publisher,
	sysLogger logger.ILogger,
	opts TutorOptions,
) ITutorService {
	return &tutorService{
		index:       index,
		selector:    selector,
		llmProvider: llmProvider,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		sysLogger:   sysLogger,
		opts:        opts,
	}
}

// sideContext is the outcome of the best-effort retrieval+guidance phase.
// Degraded means the phase failed entirely and the prompt gets no context;
// the turn still proceeds.
type sideContext struct {
	Results  []retrieval.Result
	Guidance guidance.Set
	Degraded bool
}

// preparedTurn is everything the generation step needs.
type preparedTurn struct {
	userMessage  entity.Message
	modelHistory []llm.Message
	side         sideContext
}

// Answer runs one blocking tutoring turn.
func (ts *tutorService) Answer(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	prepared := ts.prepare(ctx, request)

	genCtx, cancel := context.WithTimeout(ctx, ts.opts.GenerateTimeout)
	defer cancel()

	reply, err := ts.llmProvider.Chat(genCtx, prepared.modelHistory,
		llm.WithTemperature(ts.opts.Temperature),
		llm.WithMaxTokens(ts.opts.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrGenerationFailed, err)
	}

	return ts.complete(request, prepared, reply, false), nil
}

// AnswerStream runs one streaming tutoring turn, forwarding fragments in
// arrival order. History is appended only when the provider signals true
// completion; a cancelled or failed stream leaves history untouched.
func (ts *tutorService) AnswerStream(ctx context.Context, request *dto.SendChatRequest, onFragment llm.FragmentFunc) (*dto.SendChatResponse, error) {
	prepared := ts.prepare(ctx, request)

	genCtx, cancel := context.WithTimeout(ctx, ts.opts.GenerateTimeout)
	defer cancel()

	reply, err := ts.llmProvider.ChatStream(genCtx, prepared.modelHistory, onFragment,
		llm.WithTemperature(ts.opts.Temperature),
		llm.WithMaxTokens(ts.opts.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrGenerationFailed, err)
	}

	return ts.complete(request, prepared, reply, true), nil
}

// Retrieve is the read-only retrieval surface ("related entries" for a UI).
func (ts *tutorService) Retrieve(ctx context.Context, query string, k int, category string) ([]retrieval.Result, error) {
	retrCtx, cancel := context.WithTimeout(ctx, ts.opts.EmbedTimeout)
	defer cancel()
	return ts.index.Retrieve(retrCtx, query, k, category)
}

// SelectGuidance derives guiding questions for a message, using the best
// retrieval match when one is available.
func (ts *tutorService) SelectGuidance(ctx context.Context, msg, category string) guidance.Set {
	var matched *knowledge.Entry
	if results, err := ts.Retrieve(ctx, msg, 1, category); err == nil && len(results) > 0 {
		matched = results[0].Entry
	}
	return ts.selector.Select(msg, matched)
}

func (ts *tutorService) GetHistory(sessionID string) []dto.GetHistoryResponse {
	stored := ts.sessionRepo.Get(sessionID)
	out := make([]dto.GetHistoryResponse, 0, len(stored))
	for _, msg := range stored {
		out = append(out, dto.GetHistoryResponse{
			Id:        msg.ID.String(),
			Role:      msg.Role,
			Content:   msg.Content,
			Parts:     msg.Parts,
			CreatedAt: msg.CreatedAt,
		})
	}
	return out
}

func (ts *tutorService) ClearSession(sessionID string) {
	ts.sessionRepo.Clear(sessionID)
}

func (ts *tutorService) ListSessionIds() []string {
	return ts.sessionRepo.ListSessionIDs()
}

// prepare resolves history, builds the multimodal user turn, gathers
// best-effort context and composes the model message sequence.
func (ts *tutorService) prepare(ctx context.Context, request *dto.SendChatRequest) preparedTurn {
	side := ts.gatherContext(ctx, request.Message, request.Category)

	userMessage := buildUserMessage(request)

	history := ts.effectiveHistory(request)

	modelHistory := make([]llm.Message, 0, len(history)+2)
	modelHistory = append(modelHistory, llm.Message{
		Role:    entity.RoleSystem,
		Content: composeSystemPrompt(side),
	})
	modelHistory = append(modelHistory, history...)
	modelHistory = append(modelHistory, llm.Message{
		Role:    entity.RoleUser,
		Content: userMessage.Text(),
		Images:  userMessage.ImageRefs(),
	})

	return preparedTurn{
		userMessage:  userMessage,
		modelHistory: modelHistory,
		side:         side,
	}
}

// gatherContext runs retrieval and guidance best-effort. Any failure is
// absorbed here: the turn proceeds with empty context rather than failing.
func (ts *tutorService) gatherContext(ctx context.Context, msg, category string) sideContext {
	if strings.TrimSpace(msg) == "" {
		return sideContext{}
	}

	retrCtx, cancel := context.WithTimeout(ctx, ts.opts.EmbedTimeout)
	defer cancel()

	results, err := ts.index.Retrieve(retrCtx, msg, ts.opts.TopK, category)
	if err != nil {
		ts.sysLogger.Warn("tutor", "retrieval degraded, answering without context", map[string]interface{}{
			"error": err.Error(),
		})
		return sideContext{Guidance: ts.selector.Select(msg, nil), Degraded: true}
	}

	var matched *knowledge.Entry
	if len(results) > 0 {
		matched = results[0].Entry
	}

	return sideContext{
		Results:  results,
		Guidance: ts.selector.Select(msg, matched),
	}
}

// effectiveHistory flattens either the caller-supplied history (authoritative
// for this call) or the stored session history into model-turn format. Only
// text survives flattening; image parts are never replayed, and messages left
// empty after flattening are dropped.
func (ts *tutorService) effectiveHistory(request *dto.SendChatRequest) []llm.Message {
	if len(request.History) > 0 {
		out := make([]llm.Message, 0, len(request.History))
		for _, h := range request.History {
			if strings.TrimSpace(h.Content) == "" {
				continue
			}
			out = append(out, llm.Message{Role: h.Role, Content: h.Content})
		}
		return out
	}

	stored := ts.sessionRepo.Get(request.SessionId)
	out := make([]llm.Message, 0, len(stored))
	for _, msg := range stored {
		text := msg.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, llm.Message{Role: msg.Role, Content: text})
	}
	return out
}

// complete appends the finished turn to session history, publishes the usage
// event and shapes the response. Only called after a true completion signal.
func (ts *tutorService) complete(request *dto.SendChatRequest, prepared preparedTurn, reply string, streamed bool) *dto.SendChatResponse {
	assistantMessage := entity.NewTextMessage(entity.RoleAssistant, reply)
	ts.sessionRepo.Append(request.SessionId, prepared.userMessage, assistantMessage)

	ts.publishTurnCompleted(request, prepared, reply, streamed)

	related := make([]dto.RelatedEntryDTO, 0, len(prepared.side.Results))
	for _, r := range prepared.side.Results {
		related = append(related, dto.RelatedEntryDTO{
			Id:      r.Entry.ID,
			Theorem: r.Entry.Theorem,
			Topic:   r.Entry.Topic,
			Score:   r.Score,
			Rank:    r.Rank,
		})
	}

	return &dto.SendChatResponse{
		SessionId: request.SessionId,
		Sent: &dto.SendChatResponseChat{
			Id:        prepared.userMessage.ID.String(),
			Role:      prepared.userMessage.Role,
			Content:   prepared.userMessage.Content,
			CreatedAt: prepared.userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        assistantMessage.ID.String(),
			Role:      assistantMessage.Role,
			Content:   assistantMessage.Content,
			CreatedAt: assistantMessage.CreatedAt,
		},
		RelatedEntries: related,
		Guidance:       prepared.side.Guidance.Questions,
	}
}

func (ts *tutorService) publishTurnCompleted(request *dto.SendChatRequest, prepared preparedTurn, reply string, streamed bool) {
	if ts.publisher == nil {
		return
	}

	ids := make([]string, 0, len(prepared.side.Results))
	for _, r := range prepared.side.Results {
		ids = append(ids, r.Entry.ID)
	}

	event := dto.TurnCompletedEvent{
		SessionId:     request.SessionId,
		Question:      request.Message,
		AnswerLength:  len(reply),
		RetrievedIds:  ids,
		GuidanceCount: len(prepared.side.Guidance.Questions),
		Degraded:      prepared.side.Degraded,
		Streamed:      streamed,
		CompletedAt:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := ts.publisher.Publish(constant.TurnCompletedTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		ts.sysLogger.Warn("tutor", "failed to publish turn event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// buildUserMessage builds the turn's user content: plain text when there are
// no images, otherwise an ordered part sequence starting with a text part.
func buildUserMessage(request *dto.SendChatRequest) entity.Message {
	if len(request.Images) == 0 {
		return entity.NewTextMessage(entity.RoleUser, request.Message)
	}

	text := request.Message
	if strings.TrimSpace(text) == "" {
		text = constant.DefaultImagePrompt
	}
	return entity.NewMultimodalMessage(entity.RoleUser, text, request.Images)
}

// composeSystemPrompt assembles persona, retrieved context and guidance into
// one system message. Empty sections are omitted.
func composeSystemPrompt(side sideContext) string {
	var b strings.Builder
	b.WriteString(constant.TutorPersonaPreamble)

	if len(side.Results) > 0 {
		b.WriteString("\n\n<reference_material>\n")
		for _, r := range side.Results {
			writeEntryContext(&b, r.Entry)
		}
		b.WriteString("</reference_material>")
	}

	if !side.Guidance.Empty() {
		b.WriteString("\n\n<guiding_questions>\n")
		b.WriteString("Weave the following Socratic questions into your answer where they help the student think:\n")
		for i, q := range side.Guidance.Questions {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
		}
		b.WriteString("</guiding_questions>")
	}

	return b.String()
}

func writeEntryContext(b *strings.Builder, e *knowledge.Entry) {
	b.WriteString(fmt.Sprintf("## %s (%s / %s, %s)\n", e.Theorem, e.Category, e.Topic, e.Difficulty))
	if e.Description != "" {
		b.WriteString(e.Description + "\n")
	}
	if e.Formula.Plain != "" {
		b.WriteString("Formula: " + e.Formula.Plain + "\n")
	}
	for _, ex := range e.Examples {
		b.WriteString("Example: " + ex.Problem + " -> " + ex.Solution + "\n")
	}
	for _, cm := range e.CommonMistakes {
		b.WriteString("Common mistake: " + cm.Mistake + " | Correction: " + cm.Correction + "\n")
	}
	b.WriteString("\n")
}
