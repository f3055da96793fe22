package controller

import (
	"errors"

	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/internal/pkg/serverutils"
	"ai-therapy-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TherapyController struct {
	therapyService service.ITherapyService
	logger         logger.ILogger
}

func NewTherapyController(therapyService service.ITherapyService, log logger.ILogger) *TherapyController {
	return &TherapyController{
		therapyService: therapyService,
		logger:         log,
	}
}

func (c *TherapyController) RegisterRoutes(router fiber.Router, jwtMiddleware fiber.Handler) {
	group := router.Group("/api/therapy/v1", jwtMiddleware)

	group.Post("/sessions", c.CreateSession)
	group.Get("/sessions", c.GetAllSessions)
	group.Get("/sessions/:id", c.GetSession)
	group.Get("/sessions/:id/history", c.GetHistory)
	group.Post("/sessions/:id/messages", c.SendMessage)
	group.Patch("/sessions/:id/close", c.CloseSession)
}

func (c *TherapyController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	response, err := c.therapyService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return mapTherapyError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponseWithCode(fiber.StatusCreated, "Session created", response))
}

func (c *TherapyController) GetAllSessions(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	response, err := c.therapyService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return mapTherapyError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Sessions retrieved", response))
}

func (c *TherapyController) GetSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	response, err := c.therapyService.GetSession(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return mapTherapyError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Session retrieved", response))
}

func (c *TherapyController) GetHistory(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	response, err := c.therapyService.GetHistory(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return mapTherapyError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("History retrieved", response))
}

func (c *TherapyController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var request dto.SendMessageRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	response, err := c.therapyService.SendMessage(ctx.Context(), userId, ctx.Params("id"), &request)
	if err != nil {
		c.logger.Error("TherapyController", "SendMessage failed", map[string]interface{}{
			"session_id": ctx.Params("id"),
			"error":      err.Error(),
		})
		return mapTherapyError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Message processed", response))
}

func (c *TherapyController) CloseSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	if err := c.therapyService.CloseSession(ctx.Context(), userId, ctx.Params("id")); err != nil {
		return mapTherapyError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session closed", nil))
}

// currentUserId reads the authenticated user id placed in locals by the JWT
// middleware.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
	}

	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user identity")
	}

	return userId, nil
}

func mapTherapyError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionClosed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrReplyGeneration):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return err
	}
}
