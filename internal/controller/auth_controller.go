package controller

import (
	"errors"

	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/pkg/logger"
	"ai-therapy-be/internal/pkg/serverutils"
	"ai-therapy-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	authService service.IAuthService
	logger      logger.ILogger
}

func NewAuthController(authService service.IAuthService, log logger.ILogger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      log,
	}
}

func (c *AuthController) RegisterRoutes(router fiber.Router, jwtMiddleware fiber.Handler) {
	group := router.Group("/api/auth/v1")

	group.Post("/register", c.Register)
	group.Post("/login", c.Login)
	group.Get("/me", jwtMiddleware, c.Me)
}

func (c *AuthController) Register(ctx *fiber.Ctx) error {
	var request dto.RegisterRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	response, err := c.authService.Register(ctx.Context(), &request)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponseWithCode(fiber.StatusCreated, "User registered", response))
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var request dto.LoginRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	response, err := c.authService.Login(ctx.Context(), &request)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Login successful", response))
}

func (c *AuthController) Me(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	response, err := c.authService.Me(ctx.Context(), userId)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Profile retrieved", response))
}
