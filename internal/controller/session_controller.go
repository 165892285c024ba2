package controller

import (
	"ai-tutoring-be/internal/pkg/serverutils"
	"ai-tutoring-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	History(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type sessionController struct {
	tutorService service.ITutorService
}

func NewSessionController(tutorService service.ITutorService) ISessionController {
	return &sessionController{
		tutorService: tutorService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id/history", c.History)
	h.Delete(":id", c.Clear)
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	return ctx.JSON(serverutils.SuccessResponse("Success", c.tutorService.GetHistory(sessionID)))
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	c.tutorService.ClearSession(sessionID)
	return ctx.JSON(serverutils.SuccessResponse("Session cleared", nil))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success", c.tutorService.ListSessionIds()))
}
