package websocket

import (
	"context"
	"encoding/json"
	"time"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20 // inline-encoded images ride in the request
)

// Frame types pushed to the client.
const (
	FrameGreeting = "greeting"
	FrameFragment = "fragment"
	FrameDone     = "done"
	FrameError    = "error"
)

type streamFrame struct {
	Type    string                `json:"type"`
	Text    string                `json:"text,omitempty"`
	Data    *dto.SendChatResponse `json:"data,omitempty"`
	Message string                `json:"message,omitempty"`
}

// UpgradeMiddleware rejects plain HTTP requests on the websocket path.
func UpgradeMiddleware(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}

// TutorStreamHandler serves one answer stream per inbound request frame. Each
// request is a SendChatRequest; the reply is a sequence of fragment frames
// closed by a done frame (or a terminal error frame). A playback-style client
// can feed fragments straight into rendering.
func TutorStreamHandler(tutorService service.ITutorService, sysLogger logger.ILogger) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()
		conn.SetReadLimit(maxMessageSize)

		if err := writeFrame(conn, streamFrame{Type: FrameGreeting, Message: constant.GreetingMessage}); err != nil {
			return
		}

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					sysLogger.Warn("websocket", "unexpected close", map[string]interface{}{
						"error": err.Error(),
					})
				}
				return
			}

			var req dto.SendChatRequest
			if err := json.Unmarshal(raw, &req); err != nil || req.SessionId == "" {
				_ = writeFrame(conn, streamFrame{Type: FrameError, Message: "invalid request frame"})
				continue
			}

			res, err := tutorService.AnswerStream(context.Background(), &req, func(fragment string) error {
				return writeFrame(conn, streamFrame{Type: FrameFragment, Text: fragment})
			})
			if err != nil {
				_ = writeFrame(conn, streamFrame{Type: FrameError, Message: "generation failed"})
				continue
			}

			if err := writeFrame(conn, streamFrame{Type: FrameDone, Data: res}); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame streamFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
