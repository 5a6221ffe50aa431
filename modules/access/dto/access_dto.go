package dto

import (
	"time"

	"github.com/google/uuid"
)

type ShareEntry struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	Permission string    `json:"share" validate:"required"`
}

type ShareEventRequest struct {
	Shares []ShareEntry `json:"shares" validate:"required,min=1"`
}

type UnshareEventRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required,min=1"`
}

type ReasonResponse struct {
	Kind       string     `json:"kind"`
	LabelID    *uuid.UUID `json:"label_id,omitempty"`
	Permission string     `json:"permission"`
}

type AccessResponse struct {
	UserID     uuid.UUID        `json:"user_id"`
	EventID    uuid.UUID        `json:"event_id"`
	Permission string           `json:"permission"`
	Reasons    []ReasonResponse `json:"reasons"`
	CreatedAt  time.Time        `json:"created_at"`
}

type ListAccessResponse struct {
	Links []AccessResponse `json:"links"`
	Total int              `json:"total"`
}
