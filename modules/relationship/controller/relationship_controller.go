package controller

import (
	"context"

	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/core/utils"
	"calshare/modules/relationship/dto"
	"calshare/modules/relationship/entity"
	"calshare/modules/relationship/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type RelationshipController struct {
	controller.BaseController
	service service.RelationshipServiceInterface
}

func NewRelationshipController(service service.RelationshipServiceInterface) *RelationshipController {
	return &RelationshipController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *RelationshipController) getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// pairCall runs one of the pairwise operations after extracting caller and
// target ids. Every follow/block style handler shares this shape.
func (c *RelationshipController) pairCall(ctx echo.Context, successMessage string, call func(callerID, targetID uuid.UUID) *errors.AppError) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	targetID, err := uuid.Parse(ctx.Param("user_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid user id", nil)
	}
	if targetID == callerID {
		return c.BadRequest(errors.ErrInvalidInput, "Cannot target yourself", nil)
	}

	if appErr := call(callerID, targetID); appErr != nil {
		logger.Error("RelationshipController:PairCall:Error:", appErr)
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, successMessage)
}

func (c *RelationshipController) Follow(ctx echo.Context) error {
	return c.pairCall(ctx, "Followed successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.Follow(ctx.Request().Context(), callerID, targetID)
	})
}

func (c *RelationshipController) Unfollow(ctx echo.Context) error {
	return c.pairCall(ctx, "Unfollowed successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.Unfollow(ctx.Request().Context(), callerID, targetID)
	})
}

func (c *RelationshipController) RemoveFriend(ctx echo.Context) error {
	return c.pairCall(ctx, "Friend removed successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.RemoveFriend(ctx.Request().Context(), callerID, targetID)
	})
}

func (c *RelationshipController) Block(ctx echo.Context) error {
	return c.pairCall(ctx, "User blocked successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.Block(ctx.Request().Context(), callerID, targetID)
	})
}

func (c *RelationshipController) Unblock(ctx echo.Context) error {
	return c.pairCall(ctx, "User unblocked successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.Unblock(ctx.Request().Context(), callerID, targetID)
	})
}

func (c *RelationshipController) RemoveFollower(ctx echo.Context) error {
	return c.pairCall(ctx, "Follower removed successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.RemoveFollower(ctx.Request().Context(), callerID, targetID)
	})
}

func (c *RelationshipController) AssignLabel(ctx echo.Context) error {
	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}
	return c.pairCall(ctx, "Label assigned successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.AssignLabel(ctx.Request().Context(), callerID, targetID, labelID)
	})
}

func (c *RelationshipController) UnassignLabel(ctx echo.Context) error {
	labelID, err := uuid.Parse(ctx.Param("label_id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid label id", nil)
	}
	return c.pairCall(ctx, "Label unassigned successfully", func(callerID, targetID uuid.UUID) *errors.AppError {
		return c.service.UnassignLabel(ctx.Request().Context(), callerID, targetID, labelID)
	})
}

func (c *RelationshipController) ListFriends(ctx echo.Context) error {
	return c.listCall(ctx, "Friends retrieved successfully", c.service.ListFriends, outbound)
}

func (c *RelationshipController) ListFollowing(ctx echo.Context) error {
	return c.listCall(ctx, "Following retrieved successfully", c.service.ListFollowing, outbound)
}

func (c *RelationshipController) ListFollowers(ctx echo.Context) error {
	return c.listCall(ctx, "Followers retrieved successfully", c.service.ListFollowers, inbound)
}

// direction selects which end of an edge is "the other user" in a listing.
type direction int

const (
	outbound direction = iota
	inbound
)

func (c *RelationshipController) listCall(ctx echo.Context, successMessage string, list func(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError), dir direction) error {
	callerID, err := c.getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	edges, appErr := list(ctx.Request().Context(), callerID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	resp := dto.ListRelationshipsResponse{Total: len(edges)}
	resp.Relationships = make([]dto.RelationshipResponse, 0, len(edges))
	for _, edge := range edges {
		otherID := edge.ToUserID
		if dir == inbound {
			otherID = edge.FromUserID
		}
		labels := []uuid.UUID(edge.Labels)
		if labels == nil {
			labels = []uuid.UUID{}
		}
		resp.Relationships = append(resp.Relationships, dto.RelationshipResponse{
			UserID:    otherID,
			Type:      string(edge.Type),
			Labels:    labels,
			CreatedAt: edge.CreatedAt,
		})
	}
	return c.SuccessResponse(ctx, resp, successMessage)
}
