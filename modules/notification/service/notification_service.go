package service

import (
	"context"
	"encoding/json"
	"time"

	"calshare/core/constants"
	coreEntity "calshare/core/entity"
	"calshare/core/logger"
	"calshare/core/params"
	"calshare/modules/notification/dto"
	"calshare/modules/notification/entity"
	"calshare/modules/notification/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type NotificationService struct {
	repo  *repository.NotificationRepository
	queue *asynq.Client
}

// NewNotificationService wires the store and the delivery queue. A nil queue
// disables async delivery; notifications are still persisted.
func NewNotificationService(repo *repository.NotificationRepository, queue *asynq.Client) *NotificationService {
	return &NotificationService{repo: repo, queue: queue}
}

// Create persists the notification and enqueues a delivery task. Delivery is
// best effort: a queue failure is logged, not returned.
func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	if err := s.repo.Create(ctx, notif); err != nil {
		return err
	}

	s.enqueueDelivery(ctx, notif)
	return nil
}

func (s *NotificationService) enqueueDelivery(ctx context.Context, notif *entity.Notification) {
	if s.queue == nil {
		return
	}

	payload, err := json.Marshal(DeliveryPayload{
		NotificationID: notif.ID,
		UserID:         notif.UserID,
		Type:           notif.Type,
	})
	if err != nil {
		logger.Error("NotificationService:enqueueDelivery:Marshal:Error:", err)
		return
	}

	task := asynq.NewTask(constants.TaskNotificationDeliver, payload)
	if _, err := s.queue.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)); err != nil {
		logger.Error("NotificationService:enqueueDelivery:Enqueue:Error:", err)
	}
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
