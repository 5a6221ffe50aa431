package controller

import (
	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/event/dto"
	"calshare/modules/event/entity"
	"calshare/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type EventController struct {
	controller.BaseController
	service service.EventServiceInterface
}

func NewEventController(service service.EventServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *EventController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

func (c *EventController) Create(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	req := new(dto.CreateEventRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	event, appErr := c.service.Create(ctx.Request().Context(), callerID, req)
	if appErr != nil {
		logger.Error("EventController:Create:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*event), "Event created successfully")
}

func (c *EventController) Get(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	event, appErr := c.service.GetByID(ctx.Request().Context(), callerID, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*event), "Event retrieved successfully")
}

func (c *EventController) Update(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	req := new(dto.UpdateEventRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	event, appErr := c.service.Update(ctx.Request().Context(), callerID, eventID, req)
	if appErr != nil {
		logger.Error("EventController:Update:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, toResponse(*event), "Event updated successfully")
}

func (c *EventController) Delete(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	eventID, err := uuid.Parse(ctx.Param("event_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event id", nil)
	}

	if appErr := c.service.Delete(ctx.Request().Context(), callerID, eventID); appErr != nil {
		logger.Error("EventController:Delete:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}

func (c *EventController) List(ctx echo.Context) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	events, appErr := c.service.ListOwned(ctx.Request().Context(), callerID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.ListEventsResponse{Total: len(events)}
	resp.Events = make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		resp.Events = append(resp.Events, toResponse(e))
	}
	return c.SuccessResponse(ctx, resp, "Events retrieved successfully")
}

func toResponse(event entity.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          event.ID,
		OwnerID:     event.OwnerID,
		Title:       event.Title,
		Description: event.Description,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		CreatedAt:   event.CreatedAt,
	}
}
