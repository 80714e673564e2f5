package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/pkg/apperror"
	"org-diagnostics-be/internal/pkg/logger"
	"org-diagnostics-be/internal/pkg/serverutils"
	"org-diagnostics-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
	auth        fiber.Handler
}

func NewChatController(chatService service.IChatService, log logger.ILogger, auth fiber.Handler) IChatController {
	return &chatController{
		chatService: chatService,
		logger:      log,
		auth:        auth,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Post("stream", c.Stream)
	h.Get("history/:sessionId", c.History)
}

// Stream answers one conversation turn over SSE framing: each reply fragment
// is a "data:" line carrying {"content": ...}, the stream always closes with
// "data: [DONE]". Errors after the stream opened arrive as {"error": ...}
// frames since the 200 status is already on the wire.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.StreamChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidInput("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The fiber context is dead once this writer runs; everything it
		// needs was captured above.
		_, err := c.chatService.StreamChat(context.Background(), userId, &req, func(chunk string) error {
			return writeDataFrame(w, map[string]string{"content": chunk})
		})
		if err != nil {
			c.logger.Warn("ChatController", "Stream turn failed", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
			_ = writeDataFrame(w, map[string]string{
				"error": string(apperror.CodeOf(err)),
			})
		}

		fmt.Fprint(w, "data: [DONE]\n\n")
		w.Flush()
	}))

	return nil
}

func writeDataFrame(w *bufio.Writer, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	sessionId, err := parseIdParam(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.chatService.GetHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat history", res))
}
