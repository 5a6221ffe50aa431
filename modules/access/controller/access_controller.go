package controller

import (
	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/access/dto"
	"calshare/modules/access/entity"
	"calshare/modules/access/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AccessController struct {
	controller.BaseController
	service service.AccessServiceInterface
}

func NewAccessController(service service.AccessServiceInterface) *AccessController {
	return &AccessController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *AccessController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// ShareEvent grants direct access to a batch of users.
func (c *AccessController) ShareEvent(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	req := new(dto.ShareEventRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if len(req.Shares) == 0 {
		return c.BadRequest(errors.ErrInvalidInput, "At least one share is required", nil)
	}

	edges, appErr := c.service.ShareEvent(ctx.Request().Context(), callerID, eventID, req)
	if appErr != nil {
		logger.Error("AccessController:ShareEvent:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toListResponse(edges), "Event shared successfully")
}

// UnshareEvent revokes direct access from a batch of users.
func (c *AccessController) UnshareEvent(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	req := new(dto.UnshareEventRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if len(req.UserIDs) == 0 {
		return c.BadRequest(errors.ErrInvalidInput, "At least one user id is required", nil)
	}

	if appErr := c.service.UnshareEvent(ctx.Request().Context(), callerID, eventID, req); appErr != nil {
		logger.Error("AccessController:UnshareEvent:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Event unshared successfully")
}

// ListShares returns every access edge on an event.
func (c *AccessController) ListShares(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	edges, appErr := c.service.ListAccess(ctx.Request().Context(), callerID, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toListResponse(edges), "Shares retrieved successfully")
}

// GetShare returns one user's access edge on an event.
func (c *AccessController) GetShare(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}
	userID, err := uuid.Parse(ctx.Param("user_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid user id", nil)
	}

	edge, appErr := c.service.GetAccess(ctx.Request().Context(), callerID, userID, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*edge), "Share retrieved successfully")
}

func toResponse(edge entity.AccessEdge) dto.AccessResponse {
	reasons := make([]dto.ReasonResponse, 0, len(edge.Reasons))
	for _, r := range edge.Reasons {
		reasons = append(reasons, dto.ReasonResponse{
			Kind:       string(r.Kind),
			LabelID:    r.LabelID,
			Permission: string(r.Permission),
		})
	}
	return dto.AccessResponse{
		UserID:     edge.UserID,
		EventID:    edge.EventID,
		Permission: string(edge.Permission),
		Reasons:    reasons,
		CreatedAt:  edge.CreatedAt,
	}
}

func toListResponse(edges []entity.AccessEdge) dto.ListAccessResponse {
	links := make([]dto.AccessResponse, 0, len(edges))
	for _, edge := range edges {
		links = append(links, toResponse(edge))
	}
	return dto.ListAccessResponse{Links: links, Total: len(links)}
}
