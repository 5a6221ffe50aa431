package service

import (
	"context"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/modules/defaultshare/entity"
	"calshare/modules/defaultshare/repository"

	accessEntity "calshare/modules/access/entity"
	accessService "calshare/modules/access/service"
	labelRepo "calshare/modules/label/repository"
	relRepo "calshare/modules/relationship/repository"

	"github.com/google/uuid"
)

// DefaultShareServiceInterface manages the standing label-to-event share
// rules and their propagation into access edges.
type DefaultShareServiceInterface interface {
	Create(ctx context.Context, callerID, labelID, eventID uuid.UUID, permission string) (*entity.DefaultShare, []accessEntity.AccessEdge, *errors.AppError)
	Update(ctx context.Context, callerID, labelID, eventID uuid.UUID, permission string) (*entity.DefaultShare, *errors.AppError)
	Delete(ctx context.Context, callerID, labelID, eventID uuid.UUID) *errors.AppError
	ListByLabel(ctx context.Context, callerID, labelID uuid.UUID) ([]entity.DefaultShare, *errors.AppError)
}

type DefaultShareService struct {
	db               database.TxRunner
	repo             repository.DefaultShareRepositoryInterface
	labelRepo        labelRepo.LabelRepositoryInterface
	relationshipRepo relRepo.RelationshipRepositoryInterface
	accessService    accessService.AccessServiceInterface
}

func NewDefaultShareService(db database.TxRunner, repo repository.DefaultShareRepositoryInterface, labelRepo labelRepo.LabelRepositoryInterface, relationshipRepo relRepo.RelationshipRepositoryInterface, accessService accessService.AccessServiceInterface) *DefaultShareService {
	return &DefaultShareService{
		db:               db,
		repo:             repo,
		labelRepo:        labelRepo,
		relationshipRepo: relationshipRepo,
		accessService:    accessService,
	}
}

// authorize checks the dual requirement: the caller owns the label AND holds
// at least admin on the event.
func (s *DefaultShareService) authorize(ctx context.Context, callerID, labelID, eventID uuid.UUID) *errors.AppError {
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

	return s.accessService.Authorize(ctx, callerID, eventID, accessEntity.PermissionAdmin)
}

func parseSharePermission(permission string) (accessEntity.Permission, *errors.AppError) {
	p, ok := accessEntity.ParsePermission(permission)
	if !ok {
		return "", errors.NewAppError(errors.ErrInvalidInput, "invalid permission: "+permission, nil)
	}
	if p == accessEntity.PermissionOwner {
		return "", errors.NewAppError(errors.ErrInvalidOperation, "ownership cannot be default-shared", nil)
	}
	return p, nil
}

// Create records the default share and propagates access to every current
// live label member in one transaction. Membership is captured at call time:
// users labeled afterwards gain nothing until the rule is re-applied.
func (s *DefaultShareService) Create(ctx context.Context, callerID, labelID, eventID uuid.UUID, permission string) (*entity.DefaultShare, []accessEntity.AccessEdge, *errors.AppError) {
	p, appErr := parseSharePermission(permission)
	if appErr != nil {
		return nil, nil, appErr
	}
	if appErr := s.authorize(ctx, callerID, labelID, eventID); appErr != nil {
		return nil, nil, appErr
	}

	share := &entity.DefaultShare{
		LabelID:           labelID,
		EventID:           eventID,
		DefaultPermission: p,
	}
	var granted []accessEntity.AccessEdge

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		existing, err := s.repo.GetForUpdate(ctx, tx, labelID, eventID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load default share", err)
		}
		if existing != nil {
			return errors.NewAppError(errors.ErrAlreadyExists, "default share already exists for this label and event", nil)
		}

		if err := s.repo.Insert(ctx, tx, share); err != nil {
			return errors.NewAppError(errors.ErrCreateFailed, "failed to create default share", err)
		}

		members, err := s.relationshipRepo.ListLabelMembers(ctx, tx, callerID, labelID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to list label members", err)
		}

		for _, memberID := range members {
			edge, appErr := s.accessService.Grant(ctx, tx, memberID, eventID, accessEntity.LabelReason(labelID, p))
			if appErr != nil {
				return appErr
			}
			granted = append(granted, *edge)
		}
		return nil
	})
	if txErr != nil {
		return nil, nil, asAppError(txErr)
	}

	return share, granted, nil
}

// Update changes the rule's permission and re-derives every access edge
// justified by the label on this event.
func (s *DefaultShareService) Update(ctx context.Context, callerID, labelID, eventID uuid.UUID, permission string) (*entity.DefaultShare, *errors.AppError) {
	p, appErr := parseSharePermission(permission)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := s.authorize(ctx, callerID, labelID, eventID); appErr != nil {
		return nil, appErr
	}

	var share *entity.DefaultShare
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		existing, err := s.repo.GetForUpdate(ctx, tx, labelID, eventID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load default share", err)
		}
		if existing == nil {
			return errors.NewAppError(errors.ErrNotFound, "default share not found", nil)
		}

		existing.DefaultPermission = p
		if err := s.repo.UpdatePermission(ctx, tx, existing); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to update default share", err)
		}

		if appErr := s.accessService.ReapplyLabelPermission(ctx, tx, labelID, eventID, p); appErr != nil {
			return appErr
		}
		share = existing
		return nil
	})
	if txErr != nil {
		return nil, asAppError(txErr)
	}
	return share, nil
}

// Delete drops the rule and revokes the label reason from every justified
// edge, cascading edge deletion where it was the sole reason.
func (s *DefaultShareService) Delete(ctx context.Context, callerID, labelID, eventID uuid.UUID) *errors.AppError {
	if appErr := s.authorize(ctx, callerID, labelID, eventID); appErr != nil {
		return appErr
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		existing, err := s.repo.GetForUpdate(ctx, tx, labelID, eventID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load default share", err)
		}
		if existing == nil {
			return errors.NewAppError(errors.ErrNotFound, "default share not found", nil)
		}

		if err := s.repo.Delete(ctx, tx, existing.ID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete default share", err)
		}

		if appErr := s.accessService.RevokeLabelForEvent(ctx, tx, labelID, eventID); appErr != nil {
			return appErr
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *DefaultShareService) ListByLabel(ctx context.Context, callerID, labelID uuid.UUID) ([]entity.DefaultShare, *errors.AppError) {
	label, err := s.labelRepo.GetByID(ctx, labelID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load label", err)
	}
	if label == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "label not found", nil)
	}
	if label.OwnerID != callerID {
		return nil, errors.NewAppError(errors.ErrForbidden, "label is not owned by you", nil)
	}

	shares, err := s.repo.ListByLabel(ctx, labelID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list default shares", err)
	}
	return shares, nil
}

func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrTransactionFailed, "operation rolled back", err)
}
