package service

import (
	"context"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/modules/label/entity"
	"calshare/modules/label/repository"

	accessService "calshare/modules/access/service"
	dsRepo "calshare/modules/defaultshare/repository"
	relRepo "calshare/modules/relationship/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type LabelServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*entity.RelationshipLabel, *errors.AppError)
	Rename(ctx context.Context, callerID, labelID uuid.UUID, name string) (*entity.RelationshipLabel, *errors.AppError)
	Delete(ctx context.Context, callerID, labelID uuid.UUID) *errors.AppError
	List(ctx context.Context, ownerID uuid.UUID) ([]entity.RelationshipLabel, *errors.AppError)
}

type LabelService struct {
	db               database.TxRunner
	repo             repository.LabelRepositoryInterface
	relationshipRepo relRepo.RelationshipRepositoryInterface
	defaultShareRepo dsRepo.DefaultShareRepositoryInterface
	accessService    accessService.AccessServiceInterface
}

func NewLabelService(db database.TxRunner, repo repository.LabelRepositoryInterface, relationshipRepo relRepo.RelationshipRepositoryInterface, defaultShareRepo dsRepo.DefaultShareRepositoryInterface, accessService accessService.AccessServiceInterface) *LabelService {
	return &LabelService{
		db:               db,
		repo:             repo,
		relationshipRepo: relationshipRepo,
		defaultShareRepo: defaultShareRepo,
		accessService:    accessService,
	}
}

func (s *LabelService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*entity.RelationshipLabel, *errors.AppError) {
	if name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "label name is required", nil)
	}

	label := &entity.RelationshipLabel{
		OwnerID: ownerID,
		Name:    name,
		Slug:    slug.Make(name),
	}
	if err := s.repo.Insert(ctx, label); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "failed to create label", err)
	}
	return label, nil
}

func (s *LabelService) Rename(ctx context.Context, callerID, labelID uuid.UUID, name string) (*entity.RelationshipLabel, *errors.AppError) {
	if name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "label name is required", nil)
	}

	label, err := s.repo.GetByID(ctx, labelID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load label", err)
	}
	if label == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "label not found", nil)
	}
	if label.OwnerID != callerID {
		return nil, errors.NewAppError(errors.ErrForbidden, "label is not owned by you", nil)
	}

	label.Name = name
	label.Slug = slug.Make(name)
	if err := s.repo.Update(ctx, label); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "failed to rename label", err)
	}
	return label, nil
}

// Delete removes a label and cascades: the label is stripped from every
// relationship edge, its reason is revoked from every access edge (deleting
// edges that fall to zero reasons), and its default shares are dropped. All
// of it commits or rolls back as one transaction.
func (s *LabelService) Delete(ctx context.Context, callerID, labelID uuid.UUID) *errors.AppError {
	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		label, err := s.repo.GetByIDForUpdate(ctx, tx, labelID)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "failed to load label", err)
		}
		if label == nil {
			return errors.NewAppError(errors.ErrNotFound, "label not found", nil)
		}
		if label.OwnerID != callerID {
			return errors.NewAppError(errors.ErrForbidden, "label is not owned by you", nil)
		}

		if appErr := s.accessService.RevokeLabelEverywhere(ctx, tx, labelID); appErr != nil {
			return appErr
		}
		if err := s.relationshipRepo.StripLabel(ctx, tx, labelID); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to strip label from relationships", err)
		}
		if err := s.defaultShareRepo.DeleteByLabel(ctx, tx, labelID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete default shares", err)
		}
		if err := s.repo.Delete(ctx, tx, labelID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete label", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *LabelService) List(ctx context.Context, ownerID uuid.UUID) ([]entity.RelationshipLabel, *errors.AppError) {
	labels, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list labels", err)
	}
	return labels, nil
}

func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrTransactionFailed, "operation rolled back", err)
}
