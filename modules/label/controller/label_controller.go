package controller

import (
	"strings"

	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/label/dto"
	"calshare/modules/label/entity"
	"calshare/modules/label/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type LabelController struct {
	controller.BaseController
	service service.LabelServiceInterface
}

func NewLabelController(service service.LabelServiceInterface) *LabelController {
	return &LabelController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *LabelController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

func (c *LabelController) Create(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	req := new(dto.CreateLabelRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Label name is required", nil)
	}

	label, appErr := c.service.Create(ctx.Request().Context(), callerID, strings.TrimSpace(req.Name))
	if appErr != nil {
		logger.Error("LabelController:Create:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*label), "Label created successfully")
}

func (c *LabelController) Rename(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}

	req := new(dto.RenameLabelRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Label name is required", nil)
	}

	label, appErr := c.service.Rename(ctx.Request().Context(), callerID, labelID, strings.TrimSpace(req.Name))
	if appErr != nil {
		logger.Error("LabelController:Rename:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*label), "Label renamed successfully")
}

// Delete removes a label together with every access edge and default share
// that depended on it.
func (c *LabelController) Delete(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}

	if appErr := c.service.Delete(ctx.Request().Context(), callerID, labelID); appErr != nil {
		logger.Error("LabelController:Delete:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Label deleted successfully")
}

func (c *LabelController) List(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	labels, appErr := c.service.List(ctx.Request().Context(), callerID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.ListLabelsResponse{Total: len(labels)}
	resp.Labels = make([]dto.LabelResponse, 0, len(labels))
	for _, l := range labels {
		resp.Labels = append(resp.Labels, toResponse(l))
	}
	return c.SuccessResponse(ctx, resp, "Labels retrieved successfully")
}

func toResponse(label entity.RelationshipLabel) dto.LabelResponse {
	return dto.LabelResponse{
		ID:        label.ID,
		Name:      label.Name,
		Slug:      label.Slug,
		CreatedAt: label.CreatedAt,
	}
}
