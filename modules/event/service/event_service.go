package service

import (
	"context"
	"strings"

	"calshare/core/database"
	"calshare/core/errors"
	"calshare/modules/event/dto"
	"calshare/modules/event/entity"
	"calshare/modules/event/repository"

	accessEntity "calshare/modules/access/entity"
	accessRepo "calshare/modules/access/repository"
	accessService "calshare/modules/access/service"
	dsRepo "calshare/modules/defaultshare/repository"

	"github.com/google/uuid"
)

type EventServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, req *dto.CreateEventRequest) (*entity.Event, *errors.AppError)
	GetByID(ctx context.Context, callerID, eventID uuid.UUID) (*entity.Event, *errors.AppError)
	Update(ctx context.Context, callerID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*entity.Event, *errors.AppError)
	Delete(ctx context.Context, callerID, eventID uuid.UUID) *errors.AppError
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, *errors.AppError)
}

type EventService struct {
	db               database.TxRunner
	repo             repository.EventRepositoryInterface
	accessRepo       accessRepo.AccessRepositoryInterface
	defaultShareRepo dsRepo.DefaultShareRepositoryInterface
	accessService    accessService.AccessServiceInterface
}

func NewEventService(db database.TxRunner, repo repository.EventRepositoryInterface, accessRepo accessRepo.AccessRepositoryInterface, defaultShareRepo dsRepo.DefaultShareRepositoryInterface, accessService accessService.AccessServiceInterface) *EventService {
	return &EventService{
		db:               db,
		repo:             repo,
		accessRepo:       accessRepo,
		defaultShareRepo: defaultShareRepo,
		accessService:    accessService,
	}
}

func validateEventFields(title string, req *dto.CreateEventRequest) *errors.AppError {
	if strings.TrimSpace(title) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "event title is required", nil)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return errors.NewAppError(errors.ErrInvalidInput, "start and end times are required", nil)
	}
	if !req.StartTime.Before(req.EndTime) {
		return errors.NewAppError(errors.ErrInvalidInput, "start time must be before end time", nil)
	}
	return nil
}

// Create inserts the event and its owner access edge in one transaction so an
// event is never visible without an owner.
func (s *EventService) Create(ctx context.Context, ownerID uuid.UUID, req *dto.CreateEventRequest) (*entity.Event, *errors.AppError) {
	if appErr := validateEventFields(req.Title, req); appErr != nil {
		return nil, appErr
	}

	event := &entity.Event{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		if err := s.repo.Insert(ctx, tx, event); err != nil {
			return errors.NewAppError(errors.ErrCreateFailed, "failed to create event", err)
		}
		if _, appErr := s.accessService.Grant(ctx, tx, ownerID, event.ID, accessEntity.OwnerReason()); appErr != nil {
			return appErr
		}
		return nil
	})
	if txErr != nil {
		return nil, asAppError(txErr)
	}
	return event, nil
}

func (s *EventService) GetByID(ctx context.Context, callerID, eventID uuid.UUID) (*entity.Event, *errors.AppError) {
	if appErr := s.accessService.Authorize(ctx, callerID, eventID, accessEntity.PermissionView); appErr != nil {
		return nil, appErr
	}

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}
	return event, nil
}

func (s *EventService) Update(ctx context.Context, callerID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*entity.Event, *errors.AppError) {
	create := dto.CreateEventRequest{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if appErr := validateEventFields(req.Title, &create); appErr != nil {
		return nil, appErr
	}

	if appErr := s.accessService.Authorize(ctx, callerID, eventID, accessEntity.PermissionAdmin); appErr != nil {
		return nil, appErr
	}

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Description = req.Description
	event.StartTime = req.StartTime
	event.EndTime = req.EndTime

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		if err := s.repo.Update(ctx, tx, event); err != nil {
			return errors.NewAppError(errors.ErrUpdateFailed, "failed to update event", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, asAppError(txErr)
	}
	return event, nil
}

// Delete removes the event along with every access edge and default share
// rule pointing at it. Only the owner may delete.
func (s *EventService) Delete(ctx context.Context, callerID, eventID uuid.UUID) *errors.AppError {
	if appErr := s.accessService.Authorize(ctx, callerID, eventID, accessEntity.PermissionOwner); appErr != nil {
		return appErr
	}

	txErr := s.db.WithTransaction(ctx, func(tx database.Executor) error {
		if err := s.defaultShareRepo.DeleteByEvent(ctx, tx, eventID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete default shares", err)
		}
		if err := s.accessRepo.DeleteByEvent(ctx, tx, eventID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete access edges", err)
		}
		if err := s.repo.Delete(ctx, tx, eventID); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete event", err)
		}
		return nil
	})
	if txErr != nil {
		return asAppError(txErr)
	}
	return nil
}

func (s *EventService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, *errors.AppError) {
	events, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "failed to list events", err)
	}
	return events, nil
}

func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrTransactionFailed, "operation rolled back", err)
}
