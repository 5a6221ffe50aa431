package entity

import (
	"time"

	"calshare/core/entity"

	"github.com/google/uuid"
)

// Event is a calendar entry. Who can see or change it is decided entirely by
// access edges; OwnerID is kept for listing and as the grantee of the owner
// edge created alongside the event.
type Event struct {
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	entity.BaseEntity
}
