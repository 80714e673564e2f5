package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"org-diagnostics-be/internal/dto"
	"org-diagnostics-be/internal/pkg/apperror"
	"org-diagnostics-be/internal/pkg/serverutils"
	"org-diagnostics-be/internal/service"
)

type IDiagnosisController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	AdvanceStage(ctx *fiber.Ctx) error
	CompleteSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	DeleteMessage(ctx *fiber.Ctx) error
	TriggerExtraction(ctx *fiber.Ctx) error
	GetKnowledgeStats(ctx *fiber.Ctx) error
}

type diagnosisController struct {
	diagnosisService  service.IDiagnosisService
	extractionService service.IExtractionService
	auth              fiber.Handler
}

func NewDiagnosisController(
	diagnosisService service.IDiagnosisService,
	extractionService service.IExtractionService,
	auth fiber.Handler,
) IDiagnosisController {
	return &diagnosisController{
		diagnosisService:  diagnosisService,
		extractionService: extractionService,
		auth:              auth,
	}
}

func (c *diagnosisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/diagnosis/v1")
	h.Use(c.auth)
	h.Post("session", c.CreateSession)
	h.Get("sessions", c.GetSessions)
	h.Get("session/:id", c.GetSession)
	h.Delete("session/:id", c.DeleteSession)
	h.Post("session/:id/advance", c.AdvanceStage)
	h.Post("session/:id/complete", c.CompleteSession)
	h.Post("session/:id/extract", c.TriggerExtraction)
	h.Delete("message/:id", c.DeleteMessage)
	h.Get("knowledge/stats", c.GetKnowledgeStats)
}

func (c *diagnosisController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.diagnosisService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create diagnosis session", res))
}

func (c *diagnosisController) GetSessions(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.diagnosisService.GetSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list diagnosis sessions", res))
}

func (c *diagnosisController) GetSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.diagnosisService.GetSession(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show diagnosis session", res))
}

func (c *diagnosisController) AdvanceStage(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx, "id")
	if err != nil {
		return err
	}

	req := dto.AdvanceStageRequest{SessionId: id}
	res, err := c.diagnosisService.AdvanceStage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success advance diagnosis stage", res))
}

func (c *diagnosisController) CompleteSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.CompleteSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidInput("malformed request body")
	}
	req.SessionId = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.diagnosisService.CompleteSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success complete diagnosis session", res))
}

func (c *diagnosisController) DeleteSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.diagnosisService.DeleteSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete diagnosis session", nil))
}

func (c *diagnosisController) DeleteMessage(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.diagnosisService.DeleteMessage(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete message", nil))
}

func (c *diagnosisController) TriggerExtraction(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := parseIdParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.extractionService.TriggerExtraction(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success extract insights", res))
}

func (c *diagnosisController) GetKnowledgeStats(ctx *fiber.Ctx) error {
	res, err := c.diagnosisService.GetKnowledgeStats(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success knowledge stats", res))
}

// currentUserId reads the authenticated user injected by the JWT middleware.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return userId, nil
}

func parseIdParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.InvalidInput("invalid id parameter")
	}
	return id, nil
}
