package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDefaultShareRequest struct {
	EventID    uuid.UUID `json:"event_id"`
	Permission string    `json:"default_permission"`
}

type UpdateDefaultShareRequest struct {
	Permission string `json:"default_permission"`
}

type DefaultShareResponse struct {
	LabelID           uuid.UUID `json:"label_id"`
	EventID           uuid.UUID `json:"event_id"`
	DefaultPermission string    `json:"default_permission"`
	CreatedAt         time.Time `json:"created_at"`
}

type CreateDefaultShareResponse struct {
	Share        DefaultShareResponse `json:"share"`
	GrantedCount int                  `json:"granted_count"`
}

type ListDefaultSharesResponse struct {
	Shares []DefaultShareResponse `json:"shares"`
	Total  int                    `json:"total"`
}
