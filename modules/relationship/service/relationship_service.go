package service

import (
	"context"
	"strings"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/core/logger"
	"calshare/modules/relationship/entity"
	"calshare/modules/relationship/repository"

	labelRepo "calshare/modules/label/repository"
	notifDto "calshare/modules/notification/dto"
	notifService "calshare/modules/notification/service"

	"github.com/google/uuid"
)

// RelationshipServiceInterface is the follow/friend/block state machine over
// directed user-to-user edges.
type RelationshipServiceInterface interface {
	Follow(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError
	Unfollow(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError
	RemoveFriend(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError
	Block(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError
	Unblock(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError
	RemoveFollower(ctx context.Context, callerID, followerID uuid.UUID) *errors.AppError
	ListFriends(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError)
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError)
	AssignLabel(ctx context.Context, callerID, contactID, labelID uuid.UUID) *errors.AppError
	UnassignLabel(ctx context.Context, callerID, contactID, labelID uuid.UUID) *errors.AppError
}

type RelationshipService struct {
	db           database.TxRunner
	repo         repository.RelationshipRepositoryInterface
	labelRepo    labelRepo.LabelRepositoryInterface
	notifService *notifService.NotificationService
}

func NewRelationshipService(db database.TxRunner, repo repository.RelationshipRepositoryInterface, labelRepo labelRepo.LabelRepositoryInterface, notifService *notifService.NotificationService) *RelationshipService {
	return &RelationshipService{
		db:           db,
		repo:         repo,
		labelRepo:    labelRepo,
		notifService: notifService,
	}
}

// lockPair locks both directed edges of a user pair. Rows are always locked
// in the same order regardless of which user initiates, so two concurrent
// operations on the same pair cannot deadlock.
func (s *RelationshipService) lockPair(ctx context.Context, tx database.Executor, a, b uuid.UUID) (aToB, bToA *entity.RelationshipEdge, err error) {
	first, second := a, b
	if strings.Compare(a.String(), b.String()) > 0 {
		first, second = b, a
	}

	firstEdge, err := s.repo.GetForUpdate(ctx, tx, first, second)
	if err != nil {
		return nil, nil, err
	}
	secondEdge, err := s.repo.GetForUpdate(ctx, tx, second, first)
	if err != nil {
		return nil, nil, err
	}

	if first == a {
		return firstEdge, secondEdge, nil
	}
	return secondEdge, firstEdge, nil
}

// Follow creates a following edge toward the target. If the target already
// follows the caller, both edges are promoted to friend in one transaction.
// Re-following an existing connection is an idempotent no-op.
func (s *RelationshipService) Follow(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError {
	if callerID == targetID {
		return errors.NewAppError(errors.ErrInvalidOperation, "cannot follow yourself", nil)
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to check user", err)
	}
	if !exists {
		return errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}

	promoted := false
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		forward, reverse, err := s.lockPair(ctx, tx, callerID, targetID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}

		if reverse != nil && reverse.Type == entity.RelationshipBlocked {
			return errors.NewAppError(errors.ErrForbidden, "user has blocked you", nil)
		}

		if forward != nil {
			switch forward.Type {
			case entity.RelationshipBlocked:
				return errors.NewAppError(errors.ErrInvalidOperation, "unblock the user before following", nil)
			case entity.RelationshipFollowing, entity.RelationshipFriend:
				return nil
			}
		}

		if reverse != nil && reverse.Type == entity.RelationshipFollowing {
			// Mutual follow: both edges become friend atomically.
			reverse.Type = entity.RelationshipFriend
			if err := s.repo.Update(ctx, tx, reverse); err != nil {
				return errors.NewAppError(errors.ErrUpdateFailed, "failed to promote relationship", err)
			}
			newEdge := &entity.RelationshipEdge{
				FromUserID: callerID,
				ToUserID:   targetID,
				Type:       entity.RelationshipFriend,
			}
			if err := s.repo.Insert(ctx, tx, newEdge); err != nil {
				return errors.NewAppError(errors.ErrCreateFailed, "failed to create relationship", err)
			}
			promoted = true
			return nil
		}

		newEdge := &entity.RelationshipEdge{
			FromUserID: callerID,
			ToUserID:   targetID,
			Type:       entity.RelationshipFollowing,
		}
		if err := s.repo.Insert(ctx, tx, newEdge); err != nil {
			return errors.NewAppError(errors.ErrCreateFailed, "failed to create relationship", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}

	s.notifyFollow(ctx, callerID, targetID, promoted)
	return nil
}

// Unfollow removes the caller's following edge. On a friend pair both edges
// are demoted to following: friendship is bidirectional by construction, so
// it dissolves symmetrically.
func (s *RelationshipService) Unfollow(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError {
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		forward, reverse, err := s.lockPair(ctx, tx, callerID, targetID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}
		if forward == nil || !forward.Type.Live() {
			return errors.NewAppError(errors.ErrNotFound, "relationship not found", nil)
		}

		if forward.Type == entity.RelationshipFriend {
			return s.demotePair(ctx, tx, forward, reverse)
		}

		if err := s.repo.Delete(ctx, tx, forward.ID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete relationship", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

// RemoveFriend demotes both directions of a friend pair back to following.
func (s *RelationshipService) RemoveFriend(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError {
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		forward, reverse, err := s.lockPair(ctx, tx, callerID, targetID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}
		if forward == nil || forward.Type != entity.RelationshipFriend {
			return errors.NewAppError(errors.ErrNotFound, "friendship not found", nil)
		}
		return s.demotePair(ctx, tx, forward, reverse)
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *RelationshipService) demotePair(ctx context.Context, tx database.Executor, forward, reverse *entity.RelationshipEdge) error {
	forward.Type = entity.RelationshipFollowing
	if err := s.repo.Update(ctx, tx, forward); err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "failed to demote relationship", err)
	}
	if reverse != nil && reverse.Type == entity.RelationshipFriend {
		reverse.Type = entity.RelationshipFollowing
		if err := s.repo.Update(ctx, tx, reverse); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to demote relationship", err)
		}
	}
	return nil
}

// Block overwrites the caller's edge with blocked and removes any live edge
// the target holds toward the caller. Re-blocking is idempotent.
func (s *RelationshipService) Block(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError {
	if callerID == targetID {
		return errors.NewAppError(errors.ErrInvalidOperation, "cannot block yourself", nil)
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to check user", err)
	}
	if !exists {
		return errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		forward, reverse, err := s.lockPair(ctx, tx, callerID, targetID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}

		if reverse != nil && reverse.Type != entity.RelationshipBlocked {
			if err := s.repo.Delete(ctx, tx, reverse.ID); err != nil {
				return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete reverse relationship", err)
			}
		}

		if forward != nil {
			if forward.Type == entity.RelationshipBlocked {
				return nil
			}
			forward.Type = entity.RelationshipBlocked
			forward.Labels = entity.UUIDList{}
			if err := s.repo.Update(ctx, tx, forward); err != nil {
				return errors.NewAppError(errors.ErrUpdateFailed, "failed to update relationship", err)
			}
			return nil
		}

		newEdge := &entity.RelationshipEdge{
			FromUserID: callerID,
			ToUserID:   targetID,
			Type:       entity.RelationshipBlocked,
		}
		if err := s.repo.Insert(ctx, tx, newEdge); err != nil {
			return errors.NewAppError(errors.ErrCreateFailed, "failed to create relationship", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

// Unblock deletes the caller's blocked edge. No prior relationship is
// restored; the pair returns to none.
func (s *RelationshipService) Unblock(ctx context.Context, callerID, targetID uuid.UUID) *errors.AppError {
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		forward, err := s.repo.GetForUpdate(ctx, tx, callerID, targetID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}
		if forward == nil || forward.Type != entity.RelationshipBlocked {
			return errors.NewAppError(errors.ErrNotFound, "block not found", nil)
		}
		if err := s.repo.Delete(ctx, tx, forward.ID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete relationship", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

// RemoveFollower deletes the follower's edge toward the caller. If the pair
// was friends, the caller's own edge is demoted to following since the
// relationship is no longer mutual.
func (s *RelationshipService) RemoveFollower(ctx context.Context, callerID, followerID uuid.UUID) *errors.AppError {
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		forward, reverse, err := s.lockPair(ctx, tx, callerID, followerID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}
		if reverse == nil || !reverse.Type.Live() {
			return errors.NewAppError(errors.ErrNotFound, "follower not found", nil)
		}

		if err := s.repo.Delete(ctx, tx, reverse.ID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete relationship", err)
		}

		if forward != nil && forward.Type == entity.RelationshipFriend {
			forward.Type = entity.RelationshipFollowing
			if err := s.repo.Update(ctx, tx, forward); err != nil {
				return errors.NewAppError(errors.ErrUpdateFailed, "failed to demote relationship", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *RelationshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError) {
	edges, err := s.repo.ListByType(ctx, userID, entity.RelationshipFriend)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list friends", err)
	}
	return edges, nil
}

func (s *RelationshipService) ListFollowing(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError) {
	edges, err := s.repo.ListByType(ctx, userID, entity.RelationshipFollowing)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list following", err)
	}
	return edges, nil
}

func (s *RelationshipService) ListFollowers(ctx context.Context, userID uuid.UUID) ([]entity.RelationshipEdge, *errors.AppError) {
	edges, err := s.repo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list followers", err)
	}
	return edges, nil
}

// AssignLabel attaches one of the caller's labels to the caller's edge toward
// a contact. Labels classify the owner's own edges, never someone else's.
func (s *RelationshipService) AssignLabel(ctx context.Context, callerID, contactID, labelID uuid.UUID) *errors.AppError {
	label, err := s.labelRepo.GetByID(ctx, labelID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load label", err)
	}
	if label == nil {
		return errors.NewAppError(errors.ErrNotFound, "label not found", nil)
	}
	if label.OwnerID != callerID {
		return errors.NewAppError(errors.ErrForbidden, "label is not owned by you", nil)
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		edge, err := s.repo.GetForUpdate(ctx, tx, callerID, contactID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}
		if edge == nil || !edge.Type.Live() {
			return errors.NewAppError(errors.ErrNotFound, "relationship not found", nil)
		}
		if edge.Labels.Contains(labelID) {
			return nil
		}
		edge.Labels = append(edge.Labels, labelID)
		if err := s.repo.Update(ctx, tx, edge); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to update relationship", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *RelationshipService) UnassignLabel(ctx context.Context, callerID, contactID, labelID uuid.UUID) *errors.AppError {
	label, err := s.labelRepo.GetByID(ctx, labelID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load label", err)
	}
	if label == nil {
		return errors.NewAppError(errors.ErrNotFound, "label not found", nil)
	}
	if label.OwnerID != callerID {
		return errors.NewAppError(errors.ErrForbidden, "label is not owned by you", nil)
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		edge, err := s.repo.GetForUpdate(ctx, tx, callerID, contactID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load relationship", err)
		}
		if edge == nil || !edge.Labels.Contains(labelID) {
			return errors.NewAppError(errors.ErrNotFound, "label assignment not found", nil)
		}
		edge.Labels = edge.Labels.Remove(labelID)
		if err := s.repo.Update(ctx, tx, edge); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to update relationship", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *RelationshipService) notifyFollow(ctx context.Context, callerID, targetID uuid.UUID, promoted bool) {
	if s.notifService == nil {
		return
	}
	title := "New follower"
	message := "Someone started following you"
	notifType := "follow"
	if promoted {
		title = "New friend"
		message = "You are now friends"
		notifType = "friend"
	}
	notification := &notifDto.CreateNotificationRequest{
		UserID:  targetID,
		Title:   title,
		Message: message,
		Type:    notifType,
		Data: map[string]any{
			"user_id": callerID.String(),
		},
	}
	if err := s.notifService.Create(ctx, notification); err != nil {
		logger.Error("RelationshipService:notifyFollow:Error:", err)
	}
}

func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrTransactionFailed, "operation rolled back", err)
}
