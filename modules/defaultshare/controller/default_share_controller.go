package controller

import (
	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/defaultshare/dto"
	"calshare/modules/defaultshare/entity"
	"calshare/modules/defaultshare/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type DefaultShareController struct {
	controller.BaseController
	service service.DefaultShareServiceInterface
}

func NewDefaultShareController(service service.DefaultShareServiceInterface) *DefaultShareController {
	return &DefaultShareController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *DefaultShareController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// Create installs a default share rule and propagates access to the label's
// current members.
func (c *DefaultShareController) Create(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}

	req := new(dto.CreateDefaultShareRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.EventID == uuid.Nil {
		return c.BadRequest(errors.ErrInvalidInput, "Event id is required", nil)
	}

	share, granted, appErr := c.service.Create(ctx.Request().Context(), callerID, labelID, req.EventID, req.Permission)
	if appErr != nil {
		logger.Error("DefaultShareController:Create:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.CreateDefaultShareResponse{
		Share:        toResponse(*share),
		GrantedCount: len(granted),
	}
	return c.SuccessResponse(ctx, resp, "Default share created successfully")
}

// Update changes a rule's permission and re-derives the edges it justifies.
func (c *DefaultShareController) Update(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}
	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	req := new(dto.UpdateDefaultShareRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	share, appErr := c.service.Update(ctx.Request().Context(), callerID, labelID, eventID, req.Permission)
	if appErr != nil {
		logger.Error("DefaultShareController:Update:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*share), "Default share updated successfully")
}

// Delete removes a rule and revokes the access it propagated.
func (c *DefaultShareController) Delete(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}
	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	if appErr := c.service.Delete(ctx.Request().Context(), callerID, labelID, eventID); appErr != nil {
		logger.Error("DefaultShareController:Delete:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Default share deleted successfully")
}

// List returns every rule attached to a label.
func (c *DefaultShareController) List(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}

	shares, appErr := c.service.ListByLabel(ctx.Request().Context(), callerID, labelID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.ListDefaultSharesResponse{Total: len(shares)}
	resp.Shares = make([]dto.DefaultShareResponse, 0, len(shares))
	for _, s := range shares {
		resp.Shares = append(resp.Shares, toResponse(s))
	}
	return c.SuccessResponse(ctx, resp, "Default shares retrieved successfully")
}

func toResponse(share entity.DefaultShare) dto.DefaultShareResponse {
	return dto.DefaultShareResponse{
		LabelID:           share.LabelID,
		EventID:           share.EventID,
		DefaultPermission: string(share.DefaultPermission),
		CreatedAt:         share.CreatedAt,
	}
}
