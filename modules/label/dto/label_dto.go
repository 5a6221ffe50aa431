package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateLabelRequest struct {
	Name string `json:"name"`
}

type RenameLabelRequest struct {
	Name string `json:"name"`
}

type LabelResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type ListLabelsResponse struct {
	Labels []LabelResponse `json:"labels"`
	Total  int             `json:"total"`
}
