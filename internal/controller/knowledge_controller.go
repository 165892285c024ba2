package controller

import (
	"strconv"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/serverutils"
	"ai-tutoring-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	Categories(ctx *fiber.Ctx) error
	Topics(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
	tutorService     service.ITutorService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService, tutorService service.ITutorService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
		tutorService:     tutorService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("search", c.Search)
	h.Get("categories", c.Categories)
	h.Get("categories/:category/topics", c.Topics)
	h.Get("categories/:category/entries", c.List)
	h.Get("entries/:id", c.Show)
}

// Search is the read-only retrieval surface used to show related entries.
func (c *knowledgeController) Search(ctx *fiber.Ctx) error {
	req := dto.SearchKnowledgeRequest{
		Query:    ctx.Query("query"),
		Category: ctx.Query("category"),
	}
	if k, err := strconv.Atoi(ctx.Query("top_k")); err == nil {
		req.TopK = k
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	results, err := c.tutorService.Retrieve(ctx.Context(), req.Query, req.TopK, req.Category)
	if err != nil {
		return err
	}

	related := make([]dto.RelatedEntryDTO, 0, len(results))
	for _, r := range results {
		related = append(related, dto.RelatedEntryDTO{
			Id:      r.Entry.ID,
			Theorem: r.Entry.Theorem,
			Topic:   r.Entry.Topic,
			Score:   r.Score,
			Rank:    r.Rank,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", related))
}

func (c *knowledgeController) Categories(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success", c.knowledgeService.ListCategories()))
}

func (c *knowledgeController) Topics(ctx *fiber.Ctx) error {
	category := ctx.Params("category")
	return ctx.JSON(serverutils.SuccessResponse("Success", c.knowledgeService.ListTopics(category)))
}

func (c *knowledgeController) List(ctx *fiber.Ctx) error {
	category := ctx.Params("category")
	return ctx.JSON(serverutils.SuccessResponse("Success", c.knowledgeService.ListByCategory(category)))
}

func (c *knowledgeController) Show(ctx *fiber.Ctx) error {
	entry := c.knowledgeService.GetEntry(ctx.Params("id"))
	if entry == nil {
		return fiber.NewError(fiber.StatusNotFound, "knowledge entry not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", entry))
}
