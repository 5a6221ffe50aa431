package entity

import (
	"calshare/core/entity"

	"github.com/google/uuid"
)

// RelationshipLabel is a named grouping of contacts, owned by one user.
// Labels classify the owner's relationship edges and drive default shares.
type RelationshipLabel struct {
	OwnerID uuid.UUID `db:"owner_id" json:"owner_id"`
	Name    string    `db:"name" json:"name"`
	Slug    string    `db:"slug" json:"slug"`
	entity.BaseEntity
}
