package service

import (
	"context"
	"fmt"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/modules/access/dto"
	"calshare/modules/access/entity"
	"calshare/modules/access/repository"
	notifDto "calshare/modules/notification/dto"
	notifService "calshare/modules/notification/service"

	"github.com/google/uuid"
)

// AccessServiceInterface is the access edge manager. Grant, Revoke and the
// label helpers are transaction-scoped primitives: they run on the caller's
// transaction so that multi-edge cascades commit or roll back together.
type AccessServiceInterface interface {
	Grant(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID, reason entity.Reason) (*entity.AccessEdge, *errors.AppError)
	Revoke(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID, reason entity.Reason) *errors.AppError
	Authorize(ctx context.Context, callerID, eventID uuid.UUID, min entity.Permission) *errors.AppError
	GetAccess(ctx context.Context, callerID, userID, eventID uuid.UUID) (*entity.AccessEdge, *errors.AppError)
	ListAccess(ctx context.Context, callerID, eventID uuid.UUID) ([]entity.AccessEdge, *errors.AppError)
	ShareEvent(ctx context.Context, callerID, eventID uuid.UUID, req *dto.ShareEventRequest) ([]entity.AccessEdge, *errors.AppError)
	UnshareEvent(ctx context.Context, callerID, eventID uuid.UUID, req *dto.UnshareEventRequest) *errors.AppError
	RevokeLabelEverywhere(ctx context.Context, tx database.Executor, labelID uuid.UUID) *errors.AppError
	RevokeLabelForEvent(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) *errors.AppError
	ReapplyLabelPermission(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID, permission entity.Permission) *errors.AppError
}

type AccessService struct {
	db           database.TxRunner
	repo         repository.AccessRepositoryInterface
	notifService *notifService.NotificationService
}

func NewAccessService(db database.TxRunner, repo repository.AccessRepositoryInterface, notifService *notifService.NotificationService) *AccessService {
	return &AccessService{
		db:           db,
		repo:         repo,
		notifService: notifService,
	}
}

// Grant adds a reason to the (user, event) edge, creating the edge if absent.
// Re-granting an existing reason refreshes its permission snapshot. The edge
// permission is recomputed as the max across reasons, so adding a lower
// reason never downgrades an edge.
func (s *AccessService) Grant(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID, reason entity.Reason) (*entity.AccessEdge, *errors.AppError) {
	if !reason.Permission.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid permission", nil)
	}

	edge, err := s.repo.GetForUpdate(ctx, tx, userID, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load access edge", err)
	}

	if edge == nil {
		edge = &entity.AccessEdge{
			UserID:     userID,
			EventID:    eventID,
			Permission: reason.Permission,
			Reasons:    entity.Reasons{reason},
		}
		if err := s.repo.Insert(ctx, tx, edge); err != nil {
			return nil, errors.NewAppError(errors.ErrCreateFailed, "failed to create access edge", err)
		}
		return edge, nil
	}

	// An owner edge keeps its single owner reason. Label propagation and
	// re-granting ownership are both no-ops against it.
	if edge.Reasons.HasKind(entity.ReasonKindOwner) {
		return edge, nil
	}

	if idx := edge.Reasons.Index(reason); idx >= 0 {
		edge.Reasons[idx].Permission = reason.Permission
	} else {
		edge.Reasons = append(edge.Reasons, reason)
	}
	edge.Permission = edge.Reasons.MaxPermission()

	if err := s.repo.Update(ctx, tx, edge); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "failed to update access edge", err)
	}
	return edge, nil
}

// Revoke removes a reason from the edge. The edge is deleted when its last
// reason goes; otherwise its permission is recomputed from what remains.
// The owner reason is never revocable while the event exists.
func (s *AccessService) Revoke(ctx context.Context, tx database.Executor, userID, eventID uuid.UUID, reason entity.Reason) *errors.AppError {
	if reason.Kind == entity.ReasonKindOwner {
		return errors.NewAppError(errors.ErrInvalidOperation, "owner access cannot be revoked", nil)
	}

	edge, err := s.repo.GetForUpdate(ctx, tx, userID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load access edge", err)
	}
	if edge == nil {
		return errors.NewAppError(errors.ErrNotFound, "access edge not found", nil)
	}

	idx := edge.Reasons.Index(reason)
	if idx < 0 {
		return errors.NewAppError(errors.ErrNotFound, "access reason not found", nil)
	}

	edge.Reasons = append(edge.Reasons[:idx], edge.Reasons[idx+1:]...)
	if len(edge.Reasons) == 0 {
		if err := s.repo.Delete(ctx, tx, edge.ID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete access edge", err)
		}
		return nil
	}

	edge.Permission = edge.Reasons.MaxPermission()
	if err := s.repo.Update(ctx, tx, edge); err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "failed to update access edge", err)
	}
	return nil
}

// Authorize fails unless the caller holds at least min on the event.
func (s *AccessService) Authorize(ctx context.Context, callerID, eventID uuid.UUID, min entity.Permission) *errors.AppError {
	exists, err := s.repo.EventExists(ctx, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to check event", err)
	}
	if !exists {
		return errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}

	edge, err := s.repo.Get(ctx, callerID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load access edge", err)
	}
	if edge == nil || !edge.Permission.AtLeast(min) {
		return errors.NewAppError(errors.ErrForbidden, "insufficient permissions", nil)
	}
	return nil
}

func (s *AccessService) GetAccess(ctx context.Context, callerID, userID, eventID uuid.UUID) (*entity.AccessEdge, *errors.AppError) {
	if callerID != userID {
		if appErr := s.Authorize(ctx, callerID, eventID, entity.PermissionAdmin); appErr != nil {
			return nil, appErr
		}
	} else {
		exists, err := s.repo.EventExists(ctx, eventID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check event", err)
		}
		if !exists {
			return nil, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
		}
	}

	edge, err := s.repo.Get(ctx, userID, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load access edge", err)
	}
	if edge == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "access edge not found", nil)
	}
	return edge, nil
}

func (s *AccessService) ListAccess(ctx context.Context, callerID, eventID uuid.UUID) ([]entity.AccessEdge, *errors.AppError) {
	if appErr := s.Authorize(ctx, callerID, eventID, entity.PermissionAdmin); appErr != nil {
		return nil, appErr
	}

	edges, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list access edges", err)
	}
	return edges, nil
}

// ShareEvent grants direct-invite access to a batch of users. The batch is
// one transaction: either every share lands or none does.
func (s *AccessService) ShareEvent(ctx context.Context, callerID, eventID uuid.UUID, req *dto.ShareEventRequest) ([]entity.AccessEdge, *errors.AppError) {
	for _, share := range req.Shares {
		permission, ok := entity.ParsePermission(share.Permission)
		if !ok {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid permission: "+share.Permission, nil)
		}
		if permission == entity.PermissionOwner {
			return nil, errors.NewAppError(errors.ErrInvalidOperation, "ownership cannot be shared", nil)
		}
	}

	if appErr := s.Authorize(ctx, callerID, eventID, entity.PermissionAdmin); appErr != nil {
		return nil, appErr
	}

	callerEdge, err := s.repo.Get(ctx, callerID, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load caller access", err)
	}

	var granted []entity.AccessEdge
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		for _, share := range req.Shares {
			exists, err := s.repo.UserExists(ctx, share.UserID)
			if err != nil {
				return errors.NewAppError(errors.ErrInternalServer, "failed to check user", err)
			}
			if !exists {
				return errors.NewAppError(errors.ErrNotFound, fmt.Sprintf("user %s not found", share.UserID), nil)
			}

			if appErr := s.guardTarget(ctx, tx, callerEdge, share.UserID, eventID); appErr != nil {
				return appErr
			}

			permission, _ := entity.ParsePermission(share.Permission)
			edge, appErr := s.Grant(ctx, tx, share.UserID, eventID, entity.DirectInviteReason(permission))
			if appErr != nil {
				return appErr
			}
			granted = append(granted, *edge)
		}
		return nil
	})
	if txErr != nil {
		return nil, asAppError(txErr)
	}

	s.notifyShared(ctx, granted, eventID)
	return granted, nil
}

// UnshareEvent revokes the direct-invite reason from a batch of users, as one
// transaction. Edges kept alive by other reasons survive with a recomputed
// permission.
func (s *AccessService) UnshareEvent(ctx context.Context, callerID, eventID uuid.UUID, req *dto.UnshareEventRequest) *errors.AppError {
	if appErr := s.Authorize(ctx, callerID, eventID, entity.PermissionAdmin); appErr != nil {
		return appErr
	}

	callerEdge, err := s.repo.Get(ctx, callerID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load caller access", err)
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		for _, userID := range req.UserIDs {
			exists, err := s.repo.UserExists(ctx, userID)
			if err != nil {
				return errors.NewAppError(errors.ErrInternalServer, "failed to check user", err)
			}
			if !exists {
				return errors.NewAppError(errors.ErrNotFound, fmt.Sprintf("user %s not found", userID), nil)
			}

			if appErr := s.guardTarget(ctx, tx, callerEdge, userID, eventID); appErr != nil {
				return appErr
			}

			if appErr := s.Revoke(ctx, tx, userID, eventID, entity.DirectInviteReason(entity.PermissionView)); appErr != nil {
				return appErr
			}
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

// guardTarget enforces the mutation hierarchy: owner edges are untouchable,
// and a caller may not mutate the edge of a target holding equal or higher
// permission unless the caller is the owner.
func (s *AccessService) guardTarget(ctx context.Context, tx database.Executor, callerEdge *entity.AccessEdge, targetID, eventID uuid.UUID) *errors.AppError {
	target, err := s.repo.GetForUpdate(ctx, tx, targetID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load target access", err)
	}
	if target == nil {
		return nil
	}
	if target.Reasons.HasKind(entity.ReasonKindOwner) {
		return errors.NewAppError(errors.ErrInvalidOperation, "target user has owner access", nil)
	}
	if callerEdge != nil && callerEdge.Permission != entity.PermissionOwner && target.Permission.AtLeast(callerEdge.Permission) {
		return errors.NewAppError(errors.ErrForbidden, "target user has equal or higher permission", nil)
	}
	return nil
}

// RevokeLabelEverywhere strips the label reason from every edge carrying it.
// Used when a label is deleted.
func (s *AccessService) RevokeLabelEverywhere(ctx context.Context, tx database.Executor, labelID uuid.UUID) *errors.AppError {
	edges, err := s.repo.ListByLabelForUpdate(ctx, tx, labelID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to list label edges", err)
	}
	return s.stripLabelReason(ctx, tx, edges, labelID)
}

// RevokeLabelForEvent strips the label reason from edges on one event. Used
// when a default share is deleted.
func (s *AccessService) RevokeLabelForEvent(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID) *errors.AppError {
	edges, err := s.repo.ListByLabelAndEventForUpdate(ctx, tx, labelID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to list label edges", err)
	}
	return s.stripLabelReason(ctx, tx, edges, labelID)
}

func (s *AccessService) stripLabelReason(ctx context.Context, tx database.Executor, edges []entity.AccessEdge, labelID uuid.UUID) *errors.AppError {
	reason := entity.LabelReason(labelID, entity.PermissionView)
	for i := range edges {
		edge := &edges[i]
		idx := edge.Reasons.Index(reason)
		if idx < 0 {
			continue
		}
		edge.Reasons = append(edge.Reasons[:idx], edge.Reasons[idx+1:]...)
		if len(edge.Reasons) == 0 {
			if err := s.repo.Delete(ctx, tx, edge.ID); err != nil {
				return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete access edge", err)
			}
			continue
		}
		edge.Permission = edge.Reasons.MaxPermission()
		if err := s.repo.Update(ctx, tx, edge); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to update access edge", err)
		}
	}
	return nil
}

// ReapplyLabelPermission refreshes the permission snapshot of the label
// reason on every edge for the event, then recomputes each edge's
// permission. Used when a default share's permission changes.
func (s *AccessService) ReapplyLabelPermission(ctx context.Context, tx database.Executor, labelID, eventID uuid.UUID, permission entity.Permission) *errors.AppError {
	edges, err := s.repo.ListByLabelAndEventForUpdate(ctx, tx, labelID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to list label edges", err)
	}

	reason := entity.LabelReason(labelID, permission)
	for i := range edges {
		edge := &edges[i]
		idx := edge.Reasons.Index(reason)
		if idx < 0 {
			continue
		}
		edge.Reasons[idx].Permission = permission
		edge.Permission = edge.Reasons.MaxPermission()
		if err := s.repo.Update(ctx, tx, edge); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to update access edge", err)
		}
	}
	return nil
}

func (s *AccessService) notifyShared(ctx context.Context, edges []entity.AccessEdge, eventID uuid.UUID) {
	if s.notifService == nil {
		return
	}
	for _, edge := range edges {
		notification := &notifDto.CreateNotificationRequest{
			UserID:  edge.UserID,
			Title:   "Event shared with you",
			Message: "You have been given access to an event",
			Type:    "event_shared",
			Data: map[string]any{
				"event_id":   eventID.String(),
				"permission": string(edge.Permission),
			},
		}
		if err := s.notifService.Create(ctx, notification); err != nil {
			logger.Error("AccessService:notifyShared:Error:", err)
		}
	}
}

// asAppError normalizes errors escaping a transaction into an AppError.
func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrTransactionFailed, "operation rolled back", err)
}
