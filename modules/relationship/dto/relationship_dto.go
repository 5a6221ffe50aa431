package dto

import (
	"time"

	"github.com/google/uuid"
)

type RelationshipResponse struct {
	UserID    uuid.UUID   `json:"user_id"`
	Type      string      `json:"type"`
	Labels    []uuid.UUID `json:"labels"`
	CreatedAt time.Time   `json:"created_at"`
}

type ListRelationshipsResponse struct {
	Relationships []RelationshipResponse `json:"relationships"`
	Total         int                    `json:"total"`
}
