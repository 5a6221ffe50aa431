package service

import (
	"context"
	"encoding/json"
	"fmt"

	"calshare/core/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DeliveryPayload is the task body for a queued notification delivery.
type DeliveryPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Type           string    `json:"type"`
}

// DeliveryWorker consumes queued notification tasks. Push transports (email,
// websocket) hang off this handler; the stored notification is the source of
// truth either way.
type DeliveryWorker struct{}

func NewDeliveryWorker() *DeliveryWorker {
	return &DeliveryWorker{}
}

func (w *DeliveryWorker) HandleDeliver(ctx context.Context, task *asynq.Task) error {
	var payload DeliveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid delivery payload: %w", err)
	}

	logger.Info("Notification delivered",
		"notification_id", payload.NotificationID,
		"user_id", payload.UserID,
		"type", payload.Type,
	)
	return nil
}
