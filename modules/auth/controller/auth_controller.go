package controller

import (
	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/auth/dto"
	"calshare/modules/auth/entity"
	"calshare/modules/auth/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthController struct {
	controller.BaseController
	service service.AuthServiceInterface
}

func NewAuthController(service service.AuthServiceInterface) *AuthController {
	return &AuthController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *AuthController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Token data not found in context", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data format", nil)
	}
	return claims.UserID, nil
}

func (c *AuthController) Register(ctx echo.Context) error {
	req := new(dto.RegisterRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	tokens, appErr := c.service.Register(ctx.Request().Context(), req)
	if appErr != nil {
		logger.Error("AuthController:Register:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, tokens, "Registered successfully")
}

func (c *AuthController) Login(ctx echo.Context) error {
	req := new(dto.LoginRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.Identifier == "" || req.Password == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Identifier and password are required", nil)
	}

	tokens, appErr := c.service.Login(ctx.Request().Context(), req)
	if appErr != nil {
		logger.Error("AuthController:Login:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, tokens, "Logged in successfully")
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	req := new(dto.RefreshTokenRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.RefreshToken == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Refresh token is required", nil)
	}

	tokens, appErr := c.service.RefreshToken(ctx.Request().Context(), req.RefreshToken)
	if appErr != nil {
		logger.Error("AuthController:RefreshToken:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, tokens, "Token refreshed successfully")
}

func (c *AuthController) Logout(ctx echo.Context) error {
	token, err := utils.GetTokenFromHeader(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrMissingAuthorizationHeader, "Missing authorization header", nil)
	}

	if appErr := c.service.Logout(ctx.Request().Context(), token); appErr != nil {
		logger.Error("AuthController:Logout:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Logged out successfully")
}

func (c *AuthController) GetMe(ctx echo.Context) error {
	userID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	user, appErr := c.service.GetMe(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toUserResponse(*user), "User retrieved successfully")
}

func (c *AuthController) SearchUsers(ctx echo.Context) error {
	if _, err := c.getUserIDFromContext(ctx); err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	users, appErr := c.service.SearchUsers(ctx.Request().Context(), ctx.QueryParam("q"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	return c.SuccessResponse(ctx, resp, "Users retrieved successfully")
}

func toUserResponse(user entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
