package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/serverutils"
	"ai-tutoring-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITutorController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	ChatStream(ctx *fiber.Ctx) error
	Guidance(ctx *fiber.Ctx) error
}

type tutorController struct {
	tutorService service.ITutorService
}

func NewTutorController(tutorService service.ITutorService) ITutorController {
	return &tutorController{
		tutorService: tutorService,
	}
}

func (c *tutorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tutor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("chat", c.Chat)
	h.Post("chat/stream", c.ChatStream)
	h.Post("guidance", c.Guidance)
}

func (c *tutorController) Chat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutorService.Answer(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

// ChatStream answers over SSE: "fragment" events carry text pieces in arrival
// order, one final "done" event carries the completed turn, "error" is
// terminal. Fragments already sent are not retracted on error.
func (c *tutorController) ChatStream(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The fiber request context dies with the handler; the service
		// enforces its own generation timeout.
		res, err := c.tutorService.AnswerStream(context.Background(), &req, func(fragment string) error {
			return writeSSE(w, "fragment", fiber.Map{"text": fragment})
		})
		if err != nil {
			_ = writeSSE(w, "error", fiber.Map{"message": "generation failed"})
			return
		}
		_ = writeSSE(w, "done", res)
	})

	return nil
}

func (c *tutorController) Guidance(ctx *fiber.Ctx) error {
	var req dto.GuidanceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	set := c.tutorService.SelectGuidance(ctx.Context(), req.Message, req.Category)
	return ctx.JSON(serverutils.SuccessResponse("Success", fiber.Map{"questions": set.Questions}))
}

func writeSSE(w *bufio.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
